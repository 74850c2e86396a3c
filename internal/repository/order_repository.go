package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// ErrSeatTaken is returned when a ticket targets a place that is already
// sold for the session.
var ErrSeatTaken = errors.New("seat already taken")

// OrderRepo persists orders and their tickets.
type OrderRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts the order and all of its tickets in one transaction.  A
// place sold twice, either to an earlier order or within this one, aborts
// the whole order with ErrSeatTaken.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	created := r.now().Truncate(time.Second)
	res, err := tx.ExecContext(ctx, `INSERT INTO orders (user_id, created_at) VALUES (?, ?)`, o.UserID, created)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.CreatedAt = created

	for i := range o.Tickets {
		t := &o.Tickets[i]
		res, err = tx.ExecContext(ctx,
			`INSERT INTO tickets (order_id, movie_session_id, seat_row, seat) VALUES (?, ?, ?, ?)`,
			o.ID, t.MovieSessionID, t.Row, t.Seat)
		if err != nil {
			switch {
			case isDuplicate(err):
				return ErrSeatTaken
			case isMissingReference(err):
				return ErrInvalidReference
			}
			return fmt.Errorf("insert ticket: %w", err)
		}
		tid, err2 := res.LastInsertId()
		if err2 != nil {
			return err2
		}
		t.ID = uint64(tid)
		t.OrderID = o.ID
	}
	return nil
}

// ListByUser returns one page of the user's orders, newest first, and the
// total number of orders the user has.  Each ticket carries a session
// summary (movie title/image, hall, availability).
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.Order, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	if total == 0 {
		return []model.Order{}, 0, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, created_at FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	orders := []model.Order{}
	index := map[uint64]int{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, 0, err
		}
		o.CreatedAt = o.CreatedAt.UTC()
		o.Tickets = []model.Ticket{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(orders) == 0 {
		return orders, total, nil
	}

	ids := make([]uint64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	q := `SELECT t.id, t.order_id, t.seat_row, t.seat, ` + sessionColumns + ` ` + sessionFrom + `
		JOIN tickets t ON t.movie_session_id = s.id
		WHERE t.order_id IN (` + placeholders(len(ids)) + `)
		ORDER BY t.id`
	trows, err := r.db.QueryContext(ctx, q, idArgs(ids)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	defer trows.Close()
	for trows.Next() {
		var t model.Ticket
		var s model.MovieSession
		err := trows.Scan(&t.ID, &t.OrderID, &t.Row, &t.Seat,
			&s.ID, &s.MovieID, &s.CinemaHallID, &s.ShowTime,
			&s.Movie.Title, &s.Movie.Description, &s.Movie.Duration, &s.Movie.Image,
			&s.CinemaHall.Name, &s.CinemaHall.Rows, &s.CinemaHall.SeatsInRow, &s.TicketsSold)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ticket: %w", err)
		}
		s.Movie.ID = s.MovieID
		s.CinemaHall.ID = s.CinemaHallID
		s.ShowTime = s.ShowTime.UTC()
		t.MovieSessionID = s.ID
		t.MovieSession = &s
		i := index[t.OrderID]
		orders[i].Tickets = append(orders[i].Tickets, t)
	}
	if err := trows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
