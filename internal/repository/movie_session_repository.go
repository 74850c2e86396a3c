package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// ErrMovieSessionNotFound is returned when a session cannot be found in the DB.
var ErrMovieSessionNotFound = errors.New("movie session not found")

// MovieSessionRepo encapsulates queries against movie_sessions.  Reads join
// the movie and hall and count sold tickets so list rows can show
// availability without extra round trips.
type MovieSessionRepo struct {
	db *sql.DB
}

func NewMovieSessionRepo(db *sql.DB) *MovieSessionRepo { return &MovieSessionRepo{db: db} }

const sessionColumns = `s.id,
		s.movie_id,
		s.cinema_hall_id,
		s.show_time,
		m.title,
		m.description,
		m.duration,
		COALESCE(m.image, ''),
		h.name,
		h.seat_rows,
		h.seats_in_row,
		(SELECT COUNT(*) FROM tickets tk WHERE tk.movie_session_id = s.id) AS tickets_sold`

const sessionFrom = `FROM movie_sessions s
	JOIN movies m       ON m.id = s.movie_id
	JOIN cinema_halls h ON h.id = s.cinema_hall_id`

const sessionSelect = "SELECT " + sessionColumns + " " + sessionFrom

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(sc rowScanner) (model.MovieSession, error) {
	var s model.MovieSession
	err := sc.Scan(
		&s.ID,
		&s.MovieID,
		&s.CinemaHallID,
		&s.ShowTime,
		&s.Movie.Title,
		&s.Movie.Description,
		&s.Movie.Duration,
		&s.Movie.Image,
		&s.CinemaHall.Name,
		&s.CinemaHall.Rows,
		&s.CinemaHall.SeatsInRow,
		&s.TicketsSold,
	)
	s.Movie.ID = s.MovieID
	s.CinemaHall.ID = s.CinemaHallID
	s.ShowTime = s.ShowTime.UTC()
	return s, err
}

// sessionFilterSQL compiles a SessionFilter into a WHERE clause over alias s.
// The date filter is a half-open range so the show_time index stays usable.
func sessionFilterSQL(f model.SessionFilter) (string, []any) {
	where := []string{}
	args := []any{}
	if start, end, ok := f.DayRange(); ok {
		where = append(where, "s.show_time >= ? AND s.show_time < ?")
		args = append(args, start, end)
	}
	if ids := uniqueIDs(f.MovieIDs); len(ids) > 0 {
		where = append(where, "s.movie_id IN ("+placeholders(len(ids))+")")
		args = append(args, idArgs(ids)...)
	}
	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

// List returns sessions matching f ordered by id.  Movie relations and taken
// places are not loaded.
func (r *MovieSessionRepo) List(ctx context.Context, f model.SessionFilter) ([]model.MovieSession, error) {
	cond, args := sessionFilterSQL(f)
	rows, err := r.db.QueryContext(ctx, sessionSelect+" WHERE "+cond+" ORDER BY s.id", args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := []model.MovieSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID loads a session with its movie relations and taken places.
func (r *MovieSessionRepo) GetByID(ctx context.Context, id uint64) (*model.MovieSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, sessionSelect+" WHERE s.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	movies := []model.Movie{s.Movie}
	if err := loadMovieRelations(ctx, r.db, movies); err != nil {
		return nil, err
	}
	s.Movie = movies[0]

	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_row, seat FROM tickets WHERE movie_session_id = ? ORDER BY seat_row, seat`, id)
	if err != nil {
		return nil, fmt.Errorf("load taken places: %w", err)
	}
	defer rows.Close()
	s.TakenPlaces = []model.Place{}
	for rows.Next() {
		var p model.Place
		if err := rows.Scan(&p.Row, &p.Seat); err != nil {
			return nil, err
		}
		s.TakenPlaces = append(s.TakenPlaces, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a session.  Unknown movie or hall ids yield ErrInvalidReference.
func (r *MovieSessionRepo) Create(ctx context.Context, s *model.MovieSession) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movie_sessions (movie_id, cinema_hall_id, show_time) VALUES (?, ?, ?)`,
		s.MovieID, s.CinemaHallID, s.ShowTime.UTC())
	if err != nil {
		if isMissingReference(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Update overwrites movie, hall and show time of an existing session.  The
// caller is expected to have loaded the session first; MySQL reports zero
// affected rows for no-op updates so the count is not used as a miss signal.
func (r *MovieSessionRepo) Update(ctx context.Context, s *model.MovieSession) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE movie_sessions SET movie_id = ?, cinema_hall_id = ?, show_time = ? WHERE id = ?`,
		s.MovieID, s.CinemaHallID, s.ShowTime.UTC(), s.ID)
	if err != nil {
		if isMissingReference(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session and, through the foreign key cascade, its tickets.
func (r *MovieSessionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movie_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieSessionNotFound
	}
	return nil
}
