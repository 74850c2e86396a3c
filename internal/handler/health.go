package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-catalog/internal/logger"
)

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems.  It returns "ok" with 200 as long as the process runs.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok") // String writes plain text
}

// Ready returns a readiness handler that pings the database; it answers 503
// while the store is unreachable.
func Ready(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second) // keep probes snappy
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.L().Warn("readiness check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	}
}
