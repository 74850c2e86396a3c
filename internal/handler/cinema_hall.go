package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/serializer"
)

// ListCinemaHalls handles GET /api/cinema/cinema_halls.
func (h *CatalogHandler) ListCinemaHalls(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	halls, err := h.Halls.List(ctx)
	if err != nil {
		return internalError(c, "list cinema halls failed", err)
	}
	return c.JSON(http.StatusOK, serializer.CinemaHalls(halls))
}

// CreateCinemaHall handles POST /api/cinema/cinema_halls.
func (h *CatalogHandler) CreateCinemaHall(c echo.Context) error {
	var body struct {
		Name       string          `json:"name"`
		Rows       json.RawMessage `json:"rows"`
		SeatsInRow json.RawMessage `json:"seats_in_row"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	hall := model.CinemaHall{Name: strings.TrimSpace(body.Name)}
	verrs := ValidationErrors{}
	requireText(verrs, "name", hall.Name, 255)
	var ok bool
	if hall.Rows, ok = positiveInt(body.Rows); !ok {
		verrs.Add("rows", "a valid positive integer is required")
	}
	if hall.SeatsInRow, ok = positiveInt(body.SeatsInRow); !ok {
		verrs.Add("seats_in_row", "a valid positive integer is required")
	}
	if !verrs.Empty() {
		return validationFailed(c, verrs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Halls.Create(ctx, &hall); err != nil {
		return internalError(c, "create cinema hall failed", err)
	}
	return c.JSON(http.StatusCreated, serializer.CinemaHall(hall))
}
