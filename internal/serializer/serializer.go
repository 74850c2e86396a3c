// Package serializer turns store entities into the JSON views returned by the
// API.  Every entity has explicit projection functions; list endpoints use
// the flat views and retrieve endpoints the nested ones.
package serializer

import (
	"strings"
	"time"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// Views renders entities.  MediaURL is prefixed to stored image paths.
type Views struct {
	MediaURL string
}

func New(mediaURL string) Views { return Views{MediaURL: mediaURL} }

// ImageURL returns the public URL of a stored image path, or nil when the
// path is empty so the field serializes as null.
func (v Views) ImageURL(path string) *string {
	if path == "" {
		return nil
	}
	u := strings.TrimSuffix(v.MediaURL, "/") + "/" + strings.TrimPrefix(path, "/")
	return &u
}

func showTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

type GenreView struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

func Genre(g model.Genre) GenreView { return GenreView{ID: g.ID, Name: g.Name} }

func Genres(gs []model.Genre) []GenreView {
	out := make([]GenreView, 0, len(gs))
	for _, g := range gs {
		out = append(out, Genre(g))
	}
	return out
}

type ActorView struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

func Actor(a model.Actor) ActorView {
	return ActorView{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, FullName: a.FullName()}
}

func Actors(as []model.Actor) []ActorView {
	out := make([]ActorView, 0, len(as))
	for _, a := range as {
		out = append(out, Actor(a))
	}
	return out
}

type CinemaHallView struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Rows       uint32 `json:"rows"`
	SeatsInRow uint32 `json:"seats_in_row"`
	Capacity   int    `json:"capacity"`
}

func CinemaHall(h model.CinemaHall) CinemaHallView {
	return CinemaHallView{ID: h.ID, Name: h.Name, Rows: h.Rows, SeatsInRow: h.SeatsInRow, Capacity: h.Capacity()}
}

func CinemaHalls(hs []model.CinemaHall) []CinemaHallView {
	out := make([]CinemaHallView, 0, len(hs))
	for _, h := range hs {
		out = append(out, CinemaHall(h))
	}
	return out
}

// MovieListItem is the flat movie view: relations are reduced to display
// names.
type MovieListItem struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    uint32   `json:"duration"`
	Genres      []string `json:"genres"`
	Actors      []string `json:"actors"`
	Image       *string  `json:"image"`
}

// MovieDetailView nests full genre and actor objects.
type MovieDetailView struct {
	ID          uint64      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Duration    uint32      `json:"duration"`
	Genres      []GenreView `json:"genres"`
	Actors      []ActorView `json:"actors"`
	Image       *string     `json:"image"`
}

func (v Views) MovieList(m model.Movie) MovieListItem {
	genres := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, g.Name)
	}
	actors := make([]string, 0, len(m.Actors))
	for _, a := range m.Actors {
		actors = append(actors, a.FullName())
	}
	return MovieListItem{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Duration:    m.Duration,
		Genres:      genres,
		Actors:      actors,
		Image:       v.ImageURL(m.Image),
	}
}

func (v Views) MovieLists(ms []model.Movie) []MovieListItem {
	out := make([]MovieListItem, 0, len(ms))
	for _, m := range ms {
		out = append(out, v.MovieList(m))
	}
	return out
}

func (v Views) MovieDetail(m model.Movie) MovieDetailView {
	return MovieDetailView{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Duration:    m.Duration,
		Genres:      Genres(m.Genres),
		Actors:      Actors(m.Actors),
		Image:       v.ImageURL(m.Image),
	}
}

// MovieImageView is returned after a poster upload.
type MovieImageView struct {
	ID    uint64  `json:"id"`
	Image *string `json:"image"`
}

func (v Views) MovieImage(id uint64, path string) MovieImageView {
	return MovieImageView{ID: id, Image: v.ImageURL(path)}
}

type MovieSessionListItem struct {
	ID                 uint64  `json:"id"`
	ShowTime           string  `json:"show_time"`
	MovieTitle         string  `json:"movie_title"`
	MovieImage         *string `json:"movie_image"`
	CinemaHallName     string  `json:"cinema_hall_name"`
	CinemaHallCapacity int     `json:"cinema_hall_capacity"`
	TicketsAvailable   int     `json:"tickets_available"`
}

type PlaceView struct {
	Row  uint32 `json:"row"`
	Seat uint32 `json:"seat"`
}

type MovieSessionDetailView struct {
	ID          uint64         `json:"id"`
	ShowTime    string         `json:"show_time"`
	Movie       MovieListItem  `json:"movie"`
	CinemaHall  CinemaHallView `json:"cinema_hall"`
	TakenPlaces []PlaceView    `json:"taken_places"`
}

// MovieSessionBaseView is the write-side shape: relations as ids.
type MovieSessionBaseView struct {
	ID         uint64 `json:"id"`
	ShowTime   string `json:"show_time"`
	Movie      uint64 `json:"movie"`
	CinemaHall uint64 `json:"cinema_hall"`
}

func (v Views) MovieSessionList(s model.MovieSession) MovieSessionListItem {
	return MovieSessionListItem{
		ID:                 s.ID,
		ShowTime:           showTime(s.ShowTime),
		MovieTitle:         s.Movie.Title,
		MovieImage:         v.ImageURL(s.Movie.Image),
		CinemaHallName:     s.CinemaHall.Name,
		CinemaHallCapacity: s.CinemaHall.Capacity(),
		TicketsAvailable:   s.TicketsAvailable(),
	}
}

func (v Views) MovieSessionLists(ss []model.MovieSession) []MovieSessionListItem {
	out := make([]MovieSessionListItem, 0, len(ss))
	for _, s := range ss {
		out = append(out, v.MovieSessionList(s))
	}
	return out
}

func (v Views) MovieSessionDetail(s model.MovieSession) MovieSessionDetailView {
	places := make([]PlaceView, 0, len(s.TakenPlaces))
	for _, p := range s.TakenPlaces {
		places = append(places, PlaceView{Row: p.Row, Seat: p.Seat})
	}
	return MovieSessionDetailView{
		ID:          s.ID,
		ShowTime:    showTime(s.ShowTime),
		Movie:       v.MovieList(s.Movie),
		CinemaHall:  CinemaHall(s.CinemaHall),
		TakenPlaces: places,
	}
}

func MovieSessionBase(s model.MovieSession) MovieSessionBaseView {
	return MovieSessionBaseView{
		ID:         s.ID,
		ShowTime:   showTime(s.ShowTime),
		Movie:      s.MovieID,
		CinemaHall: s.CinemaHallID,
	}
}

type TicketView struct {
	ID           uint64                `json:"id"`
	Row          uint32                `json:"row"`
	Seat         uint32                `json:"seat"`
	MovieSession *MovieSessionListItem `json:"movie_session"`
}

type OrderView struct {
	ID        uint64       `json:"id"`
	CreatedAt string       `json:"created_at"`
	Tickets   []TicketView `json:"tickets"`
}

func (v Views) Order(o model.Order) OrderView {
	tickets := make([]TicketView, 0, len(o.Tickets))
	for _, t := range o.Tickets {
		tv := TicketView{ID: t.ID, Row: t.Row, Seat: t.Seat}
		if t.MovieSession != nil {
			s := v.MovieSessionList(*t.MovieSession)
			tv.MovieSession = &s
		}
		tickets = append(tickets, tv)
	}
	return OrderView{ID: o.ID, CreatedAt: showTime(o.CreatedAt), Tickets: tickets}
}

func (v Views) Orders(orders []model.Order) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, v.Order(o))
	}
	return out
}

// Page is the envelope of paginated list responses.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type UserView struct {
	ID      uint64 `json:"id"`
	Email   string `json:"email"`
	IsStaff bool   `json:"is_staff"`
}

func User(u model.User) UserView {
	return UserView{ID: u.ID, Email: u.Email, IsStaff: u.IsStaff}
}
