package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-catalog/internal/logger"
	"github.com/iliyamo/cinema-catalog/internal/middleware"
	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/queue"
	"github.com/iliyamo/cinema-catalog/internal/repository"
	"github.com/iliyamo/cinema-catalog/internal/serializer"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	publishTimeout  = 3 * time.Second
)

// OrderHandler serves the caller's ticket orders.
type OrderHandler struct {
	Orders   OrderStore
	Sessions MovieSessionStore
	Events   EventPublisher // optional
	Views    serializer.Views
}

func NewOrderHandler(o OrderStore, s MovieSessionStore, ev EventPublisher, v serializer.Views) *OrderHandler {
	if o == nil || s == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: o, Sessions: s, Events: ev, Views: v}
}

// ListOrders handles GET /api/cinema/orders.  Only the caller's orders are
// returned, newest first, in pages of page_size (default 10, max 100).
func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication credentials were not provided"})
	}

	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return notFound(c, "invalid page")
		}
		page = n
	}
	size := defaultPageSize
	if raw := c.QueryParam("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			size = min(n, maxPageSize)
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	orders, total, err := h.Orders.ListByUser(ctx, userID, size, (page-1)*size)
	if err != nil {
		return internalError(c, "list orders failed", err)
	}
	if page > 1 && (page-1)*size >= total {
		return notFound(c, "invalid page")
	}

	resp := serializer.Page[serializer.OrderView]{Count: total, Results: h.Views.Orders(orders)}
	if page*size < total {
		resp.Next = pageURL(c, page+1)
	}
	if page > 1 {
		resp.Previous = pageURL(c, page-1)
	}
	return c.JSON(http.StatusOK, resp)
}

// pageURL rebuilds the request URL with page set to n.  Page 1 drops the
// parameter.
func pageURL(c echo.Context, n int) *string {
	u := url.URL{Scheme: c.Scheme(), Host: c.Request().Host, Path: c.Request().URL.Path}
	q := c.Request().URL.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

type ticketBody struct {
	MovieSession json.RawMessage `json:"movie_session"`
	Row          json.RawMessage `json:"row"`
	Seat         json.RawMessage `json:"seat"`
}

// CreateOrder handles POST /api/cinema/orders.  Every ticket must target an
// existing session and a free place inside its hall; a single bad ticket
// rejects the whole order.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication credentials were not provided"})
	}
	var body struct {
		Tickets []ticketBody `json:"tickets"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	verrs := ValidationErrors{}
	if len(body.Tickets) == 0 {
		verrs.Add("tickets", "this list may not be empty")
		return validationFailed(c, verrs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sessions := map[uint64]*model.MovieSession{}
	seen := map[model.Ticket]bool{}
	order := model.Order{UserID: userID}
	for i, tb := range body.Tickets {
		field := fmt.Sprintf("tickets[%d]", i)
		sid, okS := positiveInt(tb.MovieSession)
		row, okR := positiveInt(tb.Row)
		seat, okP := positiveInt(tb.Seat)
		if !okS {
			verrs.Add(field+".movie_session", "expected an id")
		}
		if !okR {
			verrs.Add(field+".row", "a valid positive integer is required")
		}
		if !okP {
			verrs.Add(field+".seat", "a valid positive integer is required")
		}
		if !okS || !okR || !okP {
			continue
		}

		s, cached := sessions[uint64(sid)]
		if !cached {
			var err error
			s, err = h.Sessions.GetByID(ctx, uint64(sid))
			if err != nil && !errors.Is(err, repository.ErrMovieSessionNotFound) {
				return internalError(c, "get movie session failed", err)
			}
			sessions[uint64(sid)] = s
		}
		if s == nil {
			verrs.Add(field+".movie_session", "invalid id: object does not exist")
			continue
		}
		if !s.CinemaHall.HasPlace(row, seat) {
			if row < 1 || row > s.CinemaHall.Rows {
				verrs.Add(field+".row", fmt.Sprintf("row must be in range [1, %d]", s.CinemaHall.Rows))
			}
			if seat < 1 || seat > s.CinemaHall.SeatsInRow {
				verrs.Add(field+".seat", fmt.Sprintf("seat must be in range [1, %d]", s.CinemaHall.SeatsInRow))
			}
			continue
		}
		key := model.Ticket{MovieSessionID: s.ID, Row: row, Seat: seat}
		if seen[key] || placeTaken(s, row, seat) {
			verrs.Add(field, "this seat is already taken")
			continue
		}
		seen[key] = true
		order.Tickets = append(order.Tickets, key)
	}
	if !verrs.Empty() {
		return validationFailed(c, verrs)
	}

	if err := h.Orders.Create(ctx, &order); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatTaken):
			return validationFailed(c, ValidationErrors{"tickets": {"one of the seats was taken by another order"}})
		case errors.Is(err, repository.ErrInvalidReference):
			return badRequest(c, "referenced movie session does not exist")
		}
		return internalError(c, "create order failed", err)
	}
	for i := range order.Tickets {
		order.Tickets[i].MovieSession = sessions[order.Tickets[i].MovieSessionID]
	}

	h.publishCreated(c, order)
	return c.JSON(http.StatusCreated, h.Views.Order(order))
}

func placeTaken(s *model.MovieSession, row, seat uint32) bool {
	for _, p := range s.TakenPlaces {
		if p.Row == row && p.Seat == seat {
			return true
		}
	}
	return false
}

// publishCreated emits order.created.  Failures are logged only: the order
// is already committed.
func (h *OrderHandler) publishCreated(c echo.Context, o model.Order) {
	if h.Events == nil {
		return
	}
	evt := queue.OrderCreatedEvent{
		OrderID:   o.ID,
		UserID:    o.UserID,
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
		Tickets:   make([]queue.TicketEvent, 0, len(o.Tickets)),
	}
	for _, t := range o.Tickets {
		te := queue.TicketEvent{MovieSessionID: t.MovieSessionID, Row: t.Row, Seat: t.Seat}
		if t.MovieSession != nil {
			te.MovieTitle = t.MovieSession.Movie.Title
			te.ShowTime = t.MovieSession.ShowTime.UTC().Format(time.RFC3339)
		}
		evt.Tickets = append(evt.Tickets, te)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), publishTimeout)
	defer cancel()
	if err := h.Events.PublishOrderCreated(ctx, evt); err != nil {
		logger.L().Warn("publish order.created failed", zap.Uint64("order_id", o.ID), zap.Error(err))
	}
}
