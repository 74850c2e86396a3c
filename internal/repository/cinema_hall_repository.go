// This file holds the cinema hall repository.  Halls are referenced by
// movie sessions and provide the seat grid that ticket rows and seats are
// validated against.

package repository

import (
	"context"      // context carries request deadlines into DB calls
	"database/sql" // sql provides generic database operations
	"errors"       // errors defines the not-found sentinel
	"fmt"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// ErrCinemaHallNotFound is returned when a hall cannot be found in the DB.
var ErrCinemaHallNotFound = errors.New("cinema hall not found")

// CinemaHallRepo encapsulates all database queries related to halls.
type CinemaHallRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewCinemaHallRepo constructs a CinemaHallRepo with the provided DB handle.
func NewCinemaHallRepo(db *sql.DB) *CinemaHallRepo {
	return &CinemaHallRepo{db: db}
}

// List returns all halls ordered by id.
func (r *CinemaHallRepo) List(ctx context.Context) ([]model.CinemaHall, error) {
	const q = `SELECT id, name, seat_rows, seats_in_row FROM cinema_halls ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list halls: %w", err)
	}
	defer rows.Close()

	out := []model.CinemaHall{}
	for rows.Next() {
		var h model.CinemaHall
		if err := rows.Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow); err != nil {
			return nil, fmt.Errorf("scan hall: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetByID fetches a hall by its ID, returning ErrCinemaHallNotFound on a miss.
func (r *CinemaHallRepo) GetByID(ctx context.Context, id uint64) (*model.CinemaHall, error) {
	const q = `SELECT id, name, seat_rows, seats_in_row FROM cinema_halls WHERE id = ?`
	var h model.CinemaHall
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCinemaHallNotFound
		}
		return nil, fmt.Errorf("get hall: %w", err)
	}
	return &h, nil
}

// Create inserts a hall; on success the hall's ID field is populated.
func (r *CinemaHallRepo) Create(ctx context.Context, h *model.CinemaHall) error {
	const q = `INSERT INTO cinema_halls (name, seat_rows, seats_in_row) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Rows, h.SeatsInRow)
	if err != nil {
		return fmt.Errorf("insert hall: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}
