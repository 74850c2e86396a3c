package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/serializer"
)

// ListActors handles GET /api/cinema/actors.
func (h *CatalogHandler) ListActors(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	actors, err := h.Actors.List(ctx)
	if err != nil {
		return internalError(c, "list actors failed", err)
	}
	return c.JSON(http.StatusOK, serializer.Actors(actors))
}

// CreateActor handles POST /api/cinema/actors.
func (h *CatalogHandler) CreateActor(c echo.Context) error {
	var body struct {
		FirstName string `json:"first_name" form:"first_name"`
		LastName  string `json:"last_name" form:"last_name"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	a := model.Actor{FirstName: strings.TrimSpace(body.FirstName), LastName: strings.TrimSpace(body.LastName)}
	verrs := ValidationErrors{}
	requireText(verrs, "first_name", a.FirstName, 255)
	requireText(verrs, "last_name", a.LastName, 255)
	if !verrs.Empty() {
		return validationFailed(c, verrs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Actors.Create(ctx, &a); err != nil {
		return internalError(c, "create actor failed", err)
	}
	return c.JSON(http.StatusCreated, serializer.Actor(a))
}
