package handler_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/queue"
	"github.com/iliyamo/cinema-catalog/internal/repository"
	"github.com/iliyamo/cinema-catalog/internal/utils"
)

// world is an in-memory stand-in for the MySQL schema.  The store adapters
// below expose it through the handler store interfaces.
type world struct {
	mu       sync.Mutex
	nextID   uint64
	writes   int
	genres   map[uint64]model.Genre
	actors   map[uint64]model.Actor
	halls    map[uint64]model.CinemaHall
	movies   map[uint64]model.Movie // Genres/Actors hold ids only
	sessions map[uint64]model.MovieSession
	orders   map[uint64]model.Order
	users    map[uint64]*model.User
	tokens   map[string]*tokenRow
}

type tokenRow struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

func newWorld() *world {
	return &world{
		genres:   map[uint64]model.Genre{},
		actors:   map[uint64]model.Actor{},
		halls:    map[uint64]model.CinemaHall{},
		movies:   map[uint64]model.Movie{},
		sessions: map[uint64]model.MovieSession{},
		orders:   map[uint64]model.Order{},
		users:    map[uint64]*model.User{},
		tokens:   map[string]*tokenRow{},
	}
}

func (w *world) id() uint64 {
	w.nextID++
	return w.nextID
}

// ----- seeding helpers -----

func (w *world) addGenre(name string) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.id()
	w.genres[id] = model.Genre{ID: id, Name: name}
	return id
}

func (w *world) addActor(first, last string) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.id()
	w.actors[id] = model.Actor{ID: id, FirstName: first, LastName: last}
	return id
}

func (w *world) addHall(name string, rows, seats uint32) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.id()
	w.halls[id] = model.CinemaHall{ID: id, Name: name, Rows: rows, SeatsInRow: seats}
	return id
}

func (w *world) addMovie(title string, duration uint32, genreIDs, actorIDs []uint64) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.id()
	m := model.Movie{ID: id, Title: title, Description: title + " description", Duration: duration}
	for _, g := range genreIDs {
		m.Genres = append(m.Genres, model.Genre{ID: g})
	}
	for _, a := range actorIDs {
		m.Actors = append(m.Actors, model.Actor{ID: a})
	}
	w.movies[id] = m
	return id
}

func (w *world) addSession(movieID, hallID uint64, at time.Time) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.id()
	w.sessions[id] = model.MovieSession{ID: id, MovieID: movieID, CinemaHallID: hallID, ShowTime: at.UTC()}
	return id
}

func (w *world) addUser(email string, staff bool) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.id()
	hash, _ := utils.HashPassword("password1", 4)
	w.users[id] = &model.User{ID: id, Email: email, PasswordHash: hash, IsStaff: staff, IsActive: true}
	return id
}

func (w *world) addOrder(userID uint64, created time.Time, tickets ...model.Ticket) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.id()
	o := model.Order{ID: id, UserID: userID, CreatedAt: created.UTC()}
	for _, t := range tickets {
		t.ID = w.id()
		t.OrderID = id
		o.Tickets = append(o.Tickets, t)
	}
	w.orders[id] = o
	return id
}

func (w *world) writeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

// ----- read-model builders (caller holds mu) -----

func (w *world) fullMovie(id uint64) (model.Movie, bool) {
	m, ok := w.movies[id]
	if !ok {
		return model.Movie{}, false
	}
	genres := []model.Genre{}
	for _, g := range m.Genres {
		genres = append(genres, w.genres[g.ID])
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].ID < genres[j].ID })
	actors := []model.Actor{}
	for _, a := range m.Actors {
		actors = append(actors, w.actors[a.ID])
	}
	sort.Slice(actors, func(i, j int) bool { return actors[i].ID < actors[j].ID })
	m.Genres, m.Actors = genres, actors
	return m, true
}

func (w *world) taken(sessionID uint64) []model.Place {
	places := []model.Place{}
	for _, o := range w.orders {
		for _, t := range o.Tickets {
			if t.MovieSessionID == sessionID {
				places = append(places, model.Place{Row: t.Row, Seat: t.Seat})
			}
		}
	}
	sort.Slice(places, func(i, j int) bool {
		if places[i].Row != places[j].Row {
			return places[i].Row < places[j].Row
		}
		return places[i].Seat < places[j].Seat
	})
	return places
}

func (w *world) fullSession(id uint64) (model.MovieSession, bool) {
	s, ok := w.sessions[id]
	if !ok {
		return model.MovieSession{}, false
	}
	s.Movie, _ = w.fullMovie(s.MovieID)
	s.CinemaHall = w.halls[s.CinemaHallID]
	s.TakenPlaces = w.taken(id)
	s.TicketsSold = len(s.TakenPlaces)
	return s, true
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ----- store adapters -----

type genreStore struct{ w *world }

func (s genreStore) List(context.Context) ([]model.Genre, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	out := []model.Genre{}
	for _, id := range sortedKeys(s.w.genres) {
		out = append(out, s.w.genres[id])
	}
	return out, nil
}

func (s genreStore) Create(_ context.Context, g *model.Genre) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	for _, existing := range s.w.genres {
		if existing.Name == g.Name {
			return repository.ErrConflict
		}
	}
	g.ID = s.w.id()
	s.w.genres[g.ID] = *g
	s.w.writes++
	return nil
}

func (s genreStore) FindMissing(_ context.Context, ids []uint64) ([]uint64, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	var missing []uint64
	for _, id := range ids {
		if _, ok := s.w.genres[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type actorStore struct{ w *world }

func (s actorStore) List(context.Context) ([]model.Actor, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	out := []model.Actor{}
	for _, id := range sortedKeys(s.w.actors) {
		out = append(out, s.w.actors[id])
	}
	return out, nil
}

func (s actorStore) Create(_ context.Context, a *model.Actor) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	a.ID = s.w.id()
	s.w.actors[a.ID] = *a
	s.w.writes++
	return nil
}

func (s actorStore) FindMissing(_ context.Context, ids []uint64) ([]uint64, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	var missing []uint64
	for _, id := range ids {
		if _, ok := s.w.actors[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type hallStore struct{ w *world }

func (s hallStore) List(context.Context) ([]model.CinemaHall, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	out := []model.CinemaHall{}
	for _, id := range sortedKeys(s.w.halls) {
		out = append(out, s.w.halls[id])
	}
	return out, nil
}

func (s hallStore) GetByID(_ context.Context, id uint64) (*model.CinemaHall, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	h, ok := s.w.halls[id]
	if !ok {
		return nil, repository.ErrCinemaHallNotFound
	}
	return &h, nil
}

func (s hallStore) Create(_ context.Context, h *model.CinemaHall) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	h.ID = s.w.id()
	s.w.halls[h.ID] = *h
	s.w.writes++
	return nil
}

type movieStore struct{ w *world }

// List applies the filter with MovieFilter.Matches, the in-memory
// counterpart of the SQL predicate.
func (s movieStore) List(_ context.Context, f model.MovieFilter) ([]model.Movie, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	out := []model.Movie{}
	for _, id := range sortedKeys(s.w.movies) {
		m, _ := s.w.fullMovie(id)
		if f.Matches(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s movieStore) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	m, ok := s.w.fullMovie(id)
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return &m, nil
}

func (s movieStore) Create(_ context.Context, m *model.Movie) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	for _, g := range m.Genres {
		if _, ok := s.w.genres[g.ID]; !ok {
			return repository.ErrInvalidReference
		}
	}
	for _, a := range m.Actors {
		if _, ok := s.w.actors[a.ID]; !ok {
			return repository.ErrInvalidReference
		}
	}
	m.ID = s.w.id()
	s.w.movies[m.ID] = *m
	s.w.writes++
	return nil
}

func (s movieStore) SetImage(_ context.Context, id uint64, path string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	m, ok := s.w.movies[id]
	if !ok {
		return repository.ErrMovieNotFound
	}
	m.Image = path
	s.w.movies[id] = m
	s.w.writes++
	return nil
}

type sessionStore struct{ w *world }

func (s sessionStore) List(_ context.Context, f model.SessionFilter) ([]model.MovieSession, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	out := []model.MovieSession{}
	for _, id := range sortedKeys(s.w.sessions) {
		sess, _ := s.w.fullSession(id)
		if f.Matches(sess) {
			sess.TakenPlaces = nil
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s sessionStore) GetByID(_ context.Context, id uint64) (*model.MovieSession, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	sess, ok := s.w.fullSession(id)
	if !ok {
		return nil, repository.ErrMovieSessionNotFound
	}
	return &sess, nil
}

func (s sessionStore) Create(_ context.Context, sess *model.MovieSession) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.movies[sess.MovieID]; !ok {
		return repository.ErrInvalidReference
	}
	if _, ok := s.w.halls[sess.CinemaHallID]; !ok {
		return repository.ErrInvalidReference
	}
	sess.ID = s.w.id()
	s.w.sessions[sess.ID] = model.MovieSession{ID: sess.ID, MovieID: sess.MovieID, CinemaHallID: sess.CinemaHallID, ShowTime: sess.ShowTime}
	s.w.writes++
	return nil
}

func (s sessionStore) Update(_ context.Context, sess *model.MovieSession) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.sessions[sess.ID]; !ok {
		return repository.ErrMovieSessionNotFound
	}
	s.w.sessions[sess.ID] = model.MovieSession{ID: sess.ID, MovieID: sess.MovieID, CinemaHallID: sess.CinemaHallID, ShowTime: sess.ShowTime}
	s.w.writes++
	return nil
}

func (s sessionStore) Delete(_ context.Context, id uint64) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.sessions[id]; !ok {
		return repository.ErrMovieSessionNotFound
	}
	delete(s.w.sessions, id)
	s.w.writes++
	return nil
}

type orderStore struct{ w *world }

func (s orderStore) Create(_ context.Context, o *model.Order) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	for _, t := range o.Tickets {
		for _, p := range s.w.taken(t.MovieSessionID) {
			if p.Row == t.Row && p.Seat == t.Seat {
				return repository.ErrSeatTaken
			}
		}
	}
	o.ID = s.w.id()
	o.CreatedAt = time.Now().UTC().Truncate(time.Second)
	for i := range o.Tickets {
		o.Tickets[i].ID = s.w.id()
		o.Tickets[i].OrderID = o.ID
	}
	stored := *o
	stored.Tickets = append([]model.Ticket(nil), o.Tickets...)
	for i := range stored.Tickets {
		stored.Tickets[i].MovieSession = nil
	}
	s.w.orders[o.ID] = stored
	s.w.writes++
	return nil
}

func (s orderStore) ListByUser(_ context.Context, userID uint64, limit, offset int) ([]model.Order, int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	var mine []model.Order
	for _, id := range sortedKeys(s.w.orders) {
		if o := s.w.orders[id]; o.UserID == userID {
			mine = append(mine, o)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	total := len(mine)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)
	page := []model.Order{}
	for _, o := range mine[offset:end] {
		tickets := make([]model.Ticket, 0, len(o.Tickets))
		for _, t := range o.Tickets {
			sess, _ := s.w.fullSession(t.MovieSessionID)
			sess.TakenPlaces = nil
			t.MovieSession = &sess
			tickets = append(tickets, t)
		}
		o.Tickets = tickets
		page = append(page, o)
	}
	return page, total, nil
}

type userStore struct{ w *world }

func (s userStore) Create(_ context.Context, email, password string, isStaff bool, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range s.w.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	id := s.w.id()
	s.w.users[id] = &model.User{ID: id, Email: email, PasswordHash: hash, IsStaff: isStaff, IsActive: true}
	s.w.writes++
	return id, nil
}

func (s userStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range s.w.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s userStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	u, ok := s.w.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s userStore) Update(_ context.Context, id uint64, upd repository.UserUpdate, cost int) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	u, ok := s.w.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if upd.Email != nil {
		for _, other := range s.w.users {
			if other.ID != id && other.Email == *upd.Email {
				return repository.ErrEmailExists
			}
		}
		u.Email = *upd.Email
	}
	if upd.Password != nil {
		hash, err := utils.HashPassword(*upd.Password, cost)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	s.w.writes++
	return nil
}

type tokenStore struct{ w *world }

func (s tokenStore) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	s.w.tokens[hash] = &tokenRow{userID: userID, exp: exp}
	return nil
}

func (s tokenStore) live(hash string) (*tokenRow, bool) {
	row, ok := s.w.tokens[hash]
	if !ok || row.revoked || time.Now().After(row.exp) {
		return nil, false
	}
	return row, true
}

func (s tokenStore) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	row, ok := s.live(hash)
	if !ok {
		return 0, repository.ErrInvalidRefresh
	}
	return row.userID, nil
}

func (s tokenStore) Rotate(_ context.Context, oldHash, newHash string, exp time.Time) (uint64, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	row, ok := s.live(oldHash)
	if !ok {
		return 0, repository.ErrInvalidRefresh
	}
	row.revoked = true
	s.w.tokens[newHash] = &tokenRow{userID: row.userID, exp: exp}
	return row.userID, nil
}

func (s tokenStore) RevokeByHash(_ context.Context, hash string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if row, ok := s.w.tokens[hash]; ok {
		row.revoked = true
	}
	return nil
}

func (s tokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	for _, row := range s.w.tokens {
		if row.userID == userID {
			row.revoked = true
		}
	}
	return nil
}

// ----- side-effect fakes -----

type savedImage struct {
	dir, ext string
	data     []byte
}

type fakeImages struct {
	mu    sync.Mutex
	saved []savedImage
}

func (f *fakeImages) Save(_ context.Context, dir, ext string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, savedImage{dir: dir, ext: ext, data: b})
	return dir + "/poster." + ext, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.OrderCreatedEvent
	err    error
}

func (f *fakePublisher) PublishOrderCreated(_ context.Context, evt queue.OrderCreatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, evt)
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

var errDown = errors.New("connection refused")
