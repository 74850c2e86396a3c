package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-catalog/internal/config"
	"github.com/iliyamo/cinema-catalog/internal/database"
	"github.com/iliyamo/cinema-catalog/internal/handler"
	"github.com/iliyamo/cinema-catalog/internal/logger"
	"github.com/iliyamo/cinema-catalog/internal/media"
	"github.com/iliyamo/cinema-catalog/internal/metrics"
	"github.com/iliyamo/cinema-catalog/internal/middleware"
	"github.com/iliyamo/cinema-catalog/internal/queue"
	"github.com/iliyamo/cinema-catalog/internal/repository"
	"github.com/iliyamo/cinema-catalog/internal/router"
	"github.com/iliyamo/cinema-catalog/internal/serializer"
	"github.com/iliyamo/cinema-catalog/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load() // Load environment config
	if err != nil {
		// The logger is not configured yet; fall back to a production one.
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

	rdb := config.NewRedisClient() // nil when Redis is unreachable; rate limiting is then off
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(echomw.Recover())

	m := metrics.New()
	e.Use(m.Middleware())
	e.GET("/metrics", m.Handler())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, cfg.JWTSecret))

	if strings.HasPrefix(cfg.MediaURL, "/") {
		e.Static(strings.TrimSuffix(cfg.MediaURL, "/"), cfg.MediaRoot)
	}

	views := serializer.New(cfg.MediaURL)
	sessions := repository.NewMovieSessionRepo(db)
	catalog := handler.NewCatalogHandler(
		repository.NewGenreRepo(db),
		repository.NewActorRepo(db),
		repository.NewCinemaHallRepo(db),
		repository.NewMovieRepo(db),
		sessions,
		media.NewLocalStorage(cfg.MediaRoot),
		views,
	)
	brokerURL := queue.BrokerURL()
	orders := handler.NewOrderHandler(repository.NewOrderRepo(db), sessions, service.NewAMQPPublisher(brokerURL), views)
	auth := handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, auth, cfg.JWTSecret)
	router.RegisterCinema(e, catalog, orders, cfg.JWTSecret)

	if cfg.EventsConsumer {
		go func() {
			if err := queue.StartOrderConsumer(ctx, brokerURL, cfg.EventsLogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("order consumer stopped", zap.Error(err))
			}
		}()
	}

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
