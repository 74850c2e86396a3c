package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/repository"
	"github.com/iliyamo/cinema-catalog/internal/serializer"
)

// ListGenres handles GET /api/cinema/genres.
func (h *CatalogHandler) ListGenres(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	genres, err := h.Genres.List(ctx)
	if err != nil {
		return internalError(c, "list genres failed", err)
	}
	return c.JSON(http.StatusOK, serializer.Genres(genres))
}

// CreateGenre handles POST /api/cinema/genres.
func (h *CatalogHandler) CreateGenre(c echo.Context) error {
	var body struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	verrs := ValidationErrors{}
	name := strings.TrimSpace(body.Name)
	requireText(verrs, "name", name, 255)
	if !verrs.Empty() {
		return validationFailed(c, verrs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	g := model.Genre{Name: name}
	if err := h.Genres.Create(ctx, &g); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "genre with this name already exists"})
		}
		return internalError(c, "create genre failed", err)
	}
	return c.JSON(http.StatusCreated, serializer.Genre(g))
}

// requireText records an error when v is blank or longer than limit runes.
func requireText(verrs ValidationErrors, field, v string, limit int) {
	switch {
	case v == "":
		verrs.Add(field, "this field is required")
	case limit > 0 && len([]rune(v)) > limit:
		verrs.Add(field, "ensure this field has no more than "+strconv.Itoa(limit)+" characters")
	}
}
