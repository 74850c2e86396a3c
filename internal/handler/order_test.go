package handler_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/serializer"
)

func ticket(session uint64, row, seat int) map[string]any {
	return map[string]any{"movie_session": session, "row": row, "seat": seat}
}

func orderBody(tickets ...map[string]any) map[string]any {
	if tickets == nil {
		tickets = []map[string]any{}
	}
	return map[string]any{"tickets": tickets}
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)
	f := seedSessions(env.w)
	uid := env.w.addUser("buyer@example.com", false)
	tok := env.token(uid, false)

	rec := env.do(http.MethodPost, "/api/cinema/orders", orderBody(ticket(f.early, 1, 1), ticket(f.early, 1, 2)), tok)
	requireStatus(t, rec, http.StatusCreated)
	got := decode[serializer.OrderView](t, rec)
	assert.NotZero(t, got.ID)
	assert.NotEmpty(t, got.CreatedAt)
	require.Len(t, got.Tickets, 2)
	assert.Equal(t, uint32(2), got.Tickets[1].Seat)
	require.NotNil(t, got.Tickets[0].MovieSession)
	assert.Equal(t, "The Matrix", got.Tickets[0].MovieSession.MovieTitle)

	require.Len(t, env.events.events, 1)
	evt := env.events.events[0]
	assert.Equal(t, got.ID, evt.OrderID)
	assert.Equal(t, uid, evt.UserID)
	require.Len(t, evt.Tickets, 2)
	assert.Equal(t, "The Matrix", evt.Tickets[0].MovieTitle)
	assert.Equal(t, "2024-05-01T00:00:00Z", evt.Tickets[0].ShowTime)

	rec = env.do(http.MethodGet, "/api/cinema/movie_sessions/"+itoa(f.early), nil, tok)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, []serializer.PlaceView{{Row: 1, Seat: 1}, {Row: 1, Seat: 2}},
		decode[serializer.MovieSessionDetailView](t, rec).TakenPlaces)
}

func TestCreateOrderSurvivesPublishFailure(t *testing.T) {
	env := newTestEnv(t)
	f := seedSessions(env.w)
	env.events.err = errors.New("broker down")

	rec := env.do(http.MethodPost, "/api/cinema/orders", orderBody(ticket(f.other, 2, 3)), env.userToken())
	requireStatus(t, rec, http.StatusCreated)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	f := seedSessions(env.w)
	buyer := env.w.addUser("first@example.com", false)
	env.w.addOrder(buyer, time.Now(), model.Ticket{MovieSessionID: f.late, Row: 2, Seat: 2})
	tok := env.userToken()

	cases := []struct {
		name  string
		body  any
		field string
		msg   string
	}{
		{"no tickets", orderBody(), "tickets", "this list may not be empty"},
		{"missing tickets key", map[string]any{}, "tickets", "this list may not be empty"},
		{"row out of range", orderBody(ticket(f.late, 3, 1)), "tickets[0].row", "row must be in range [1, 2]"},
		{"seat out of range", orderBody(ticket(f.late, 1, 1), ticket(f.late, 1, 4)), "tickets[1].seat", "seat must be in range [1, 3]"},
		{"zero row", orderBody(ticket(f.late, 0, 1)), "tickets[0].row", "a valid positive integer is required"},
		{"unknown session", orderBody(ticket(999, 1, 1)), "tickets[0].movie_session", "invalid id: object does not exist"},
		{"seat already sold", orderBody(ticket(f.late, 2, 2)), "tickets[0]", "this seat is already taken"},
		{"same seat twice", orderBody(ticket(f.late, 1, 1), ticket(f.late, 1, 1)), "tickets[1]", "this seat is already taken"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := env.w.writeCount()
			rec := env.do(http.MethodPost, "/api/cinema/orders", tc.body, tok)
			requireStatus(t, rec, http.StatusBadRequest)
			assert.Contains(t, decode[validationBody](t, rec).Fields[tc.field], tc.msg)
			assert.Equal(t, before, env.w.writeCount(), "no order is written")
		})
	}
	assert.Empty(t, env.events.events)
}

func TestCreateOrderSameSeatInDifferentSessions(t *testing.T) {
	env := newTestEnv(t)
	f := seedSessions(env.w)

	rec := env.do(http.MethodPost, "/api/cinema/orders", orderBody(ticket(f.early, 1, 1), ticket(f.late, 1, 1)), env.userToken())
	requireStatus(t, rec, http.StatusCreated)
}

func TestOrdersRequireAuthentication(t *testing.T) {
	env := newTestEnv(t)
	f := seedSessions(env.w)

	requireStatus(t, env.do(http.MethodGet, "/api/cinema/orders", nil, ""), http.StatusUnauthorized)
	requireStatus(t, env.do(http.MethodPost, "/api/cinema/orders", orderBody(ticket(f.early, 1, 1)), ""), http.StatusUnauthorized)
}

func TestListOrdersPaginatesCallerOrders(t *testing.T) {
	env := newTestEnv(t)
	f := seedSessions(env.w)
	me := env.w.addUser("me@example.com", false)
	someone := env.w.addUser("else@example.com", false)
	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	var mine []uint64
	for i := 0; i < 12; i++ {
		row, seat := uint32(i/3+1), uint32(i%3+1)
		session := f.early
		if i >= 6 {
			session, row = f.late, row-2
		}
		mine = append(mine, env.w.addOrder(me, base.Add(time.Duration(i)*time.Minute),
			model.Ticket{MovieSessionID: session, Row: row, Seat: seat}))
	}
	env.w.addOrder(someone, base.Add(time.Hour), model.Ticket{MovieSessionID: f.other, Row: 1, Seat: 1})
	tok := env.token(me, false)

	rec := env.do(http.MethodGet, "/api/cinema/orders", nil, tok)
	requireStatus(t, rec, http.StatusOK)
	page := decode[serializer.Page[serializer.OrderView]](t, rec)
	assert.Equal(t, 12, page.Count)
	require.Len(t, page.Results, 10)
	assert.Equal(t, mine[11], page.Results[0].ID, "newest first")
	require.NotNil(t, page.Next)
	assert.Equal(t, "http://example.com/api/cinema/orders?page=2", *page.Next)
	assert.Nil(t, page.Previous)
	require.NotNil(t, page.Results[0].Tickets[0].MovieSession)
	assert.Equal(t, "The Matrix", page.Results[0].Tickets[0].MovieSession.MovieTitle)

	rec = env.do(http.MethodGet, "/api/cinema/orders?page=2", nil, tok)
	requireStatus(t, rec, http.StatusOK)
	page = decode[serializer.Page[serializer.OrderView]](t, rec)
	require.Len(t, page.Results, 2)
	assert.Equal(t, []uint64{mine[1], mine[0]}, []uint64{page.Results[0].ID, page.Results[1].ID})
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://example.com/api/cinema/orders", *page.Previous)

	rec = env.do(http.MethodGet, "/api/cinema/orders?page=2&page_size=5", nil, tok)
	requireStatus(t, rec, http.StatusOK)
	page = decode[serializer.Page[serializer.OrderView]](t, rec)
	assert.Len(t, page.Results, 5)
	assert.Equal(t, "http://example.com/api/cinema/orders?page=3&page_size=5", *page.Next)

	requireStatus(t, env.do(http.MethodGet, "/api/cinema/orders?page=3", nil, tok), http.StatusNotFound)
	requireStatus(t, env.do(http.MethodGet, "/api/cinema/orders?page=zero", nil, tok), http.StatusNotFound)

	rec = env.do(http.MethodGet, "/api/cinema/orders", nil, env.token(someone, false))
	requireStatus(t, rec, http.StatusOK)
	page = decode[serializer.Page[serializer.OrderView]](t, rec)
	assert.Equal(t, 1, page.Count)

	rec = env.do(http.MethodGet, "/api/cinema/orders", nil, env.userToken())
	requireStatus(t, rec, http.StatusOK)
	assert.JSONEq(t, `{"count":0,"next":null,"previous":null,"results":[]}`, rec.Body.String())
}
