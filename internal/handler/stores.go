package handler

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/queue"
	"github.com/iliyamo/cinema-catalog/internal/repository"
)

// The handlers depend on these narrow interfaces; the repository types in
// internal/repository satisfy them.

type GenreStore interface {
	List(ctx context.Context) ([]model.Genre, error)
	Create(ctx context.Context, g *model.Genre) error
	FindMissing(ctx context.Context, ids []uint64) ([]uint64, error)
}

type ActorStore interface {
	List(ctx context.Context) ([]model.Actor, error)
	Create(ctx context.Context, a *model.Actor) error
	FindMissing(ctx context.Context, ids []uint64) ([]uint64, error)
}

type CinemaHallStore interface {
	List(ctx context.Context) ([]model.CinemaHall, error)
	GetByID(ctx context.Context, id uint64) (*model.CinemaHall, error)
	Create(ctx context.Context, h *model.CinemaHall) error
}

type MovieStore interface {
	List(ctx context.Context, f model.MovieFilter) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
	SetImage(ctx context.Context, id uint64, path string) error
}

type MovieSessionStore interface {
	List(ctx context.Context, f model.SessionFilter) ([]model.MovieSession, error)
	GetByID(ctx context.Context, id uint64) (*model.MovieSession, error)
	Create(ctx context.Context, s *model.MovieSession) error
	Update(ctx context.Context, s *model.MovieSession) error
	Delete(ctx context.Context, id uint64) error
}

type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.Order, int, error)
}

type UserStore interface {
	Create(ctx context.Context, email, password string, isStaff bool, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	Update(ctx context.Context, id uint64, u repository.UserUpdate, cost int) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	Rotate(ctx context.Context, oldHash, newHash string, exp time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// EventPublisher delivers domain events to the broker.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, evt queue.OrderCreatedEvent) error
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

var (
	_ GenreStore        = (*repository.GenreRepo)(nil)
	_ ActorStore        = (*repository.ActorRepo)(nil)
	_ CinemaHallStore   = (*repository.CinemaHallRepo)(nil)
	_ MovieStore        = (*repository.MovieRepo)(nil)
	_ MovieSessionStore = (*repository.MovieSessionRepo)(nil)
	_ OrderStore        = (*repository.OrderRepo)(nil)
	_ UserStore         = (*repository.UserRepo)(nil)
	_ TokenStore        = (*repository.TokenRepo)(nil)
)
