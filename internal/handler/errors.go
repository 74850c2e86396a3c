package handler

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-catalog/internal/logger"
)

// dbTimeout bounds the store calls of a single request.
const dbTimeout = 5 * time.Second

// ValidationErrors collects field-level messages for a 400 response.
type ValidationErrors map[string][]string

// Add records msg against field.
func (v ValidationErrors) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Has reports whether field already carries an error.
func (v ValidationErrors) Has(field string) bool { return len(v[field]) > 0 }

// Empty reports whether no field failed.
func (v ValidationErrors) Empty() bool { return len(v) == 0 }

// Fields returns the failing field names in sorted order.
func (v ValidationErrors) Fields() []string {
	out := make([]string, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func validationFailed(c echo.Context, v ValidationErrors) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": v})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func notFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": msg})
}

// internalError logs err with the request id and writes a generic 500.  The
// cause is never sent to the client.
func internalError(c echo.Context, msg string, err error) error {
	logger.L().Error(msg,
		zap.Error(err),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// pathID parses the :id path parameter.  ok is false for anything that is
// not a positive integer; callers answer 404 since no such row can exist.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
