// Command seed creates the staff account and optional sample genres.  It is
// safe to run repeatedly: an existing account is promoted to staff rather
// than duplicated, and existing genres are skipped.
package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-catalog/internal/config"
	"github.com/iliyamo/cinema-catalog/internal/database"
	"github.com/iliyamo/cinema-catalog/internal/logger"
	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/repository"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("load config", zap.Error(err))
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		zap.Must(zap.NewProduction()).Fatal("init logger", zap.Error(err))
	}
	defer logger.Sync()
	log := logger.L()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email != "" && password != "" {
		if err := seedAdmin(ctx, repository.NewUserRepo(db), email, password, cfg.BcryptCost); err != nil {
			log.Fatal("seed admin", zap.Error(err))
		}
		log.Info("staff account ready", zap.String("email", repository.NormalizeEmail(email)))
	} else {
		log.Info("SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD not set, skipping staff account")
	}

	if names := splitNames(os.Getenv("SEED_GENRES")); len(names) > 0 {
		created, err := seedGenres(ctx, repository.NewGenreRepo(db), names)
		if err != nil {
			log.Fatal("seed genres", zap.Error(err))
		}
		log.Info("genres seeded", zap.Int("created", created), zap.Int("requested", len(names)))
	}
}

type adminStore interface {
	Create(ctx context.Context, email, password string, isStaff bool, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SetStaff(ctx context.Context, id uint64, isStaff bool) error
}

// seedAdmin creates email as a staff user, or promotes it if it exists.  An
// existing password is left unchanged.
func seedAdmin(ctx context.Context, users adminStore, email, password string, cost int) error {
	_, err := users.Create(ctx, email, password, true, cost)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrEmailExists) {
		return err
	}
	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.IsStaff {
		return nil
	}
	return users.SetStaff(ctx, u.ID, true)
}

type genreCreator interface {
	Create(ctx context.Context, g *model.Genre) error
}

// seedGenres inserts names, skipping ones that already exist.  It returns
// how many were created.
func seedGenres(ctx context.Context, genres genreCreator, names []string) (int, error) {
	created := 0
	for _, name := range names {
		err := genres.Create(ctx, &model.Genre{Name: name})
		switch {
		case err == nil:
			created++
		case errors.Is(err, repository.ErrConflict):
		default:
			return created, err
		}
	}
	return created, nil
}

func splitNames(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
