package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/repository"
	"github.com/iliyamo/cinema-catalog/internal/serializer"
)

// ListMovieSessions handles GET /api/cinema/movie_sessions with the optional
// date (YYYY-MM-DD) and movie (comma separated ids) filters.
func (h *CatalogHandler) ListMovieSessions(c echo.Context) error {
	verrs := ValidationErrors{}
	f := model.SessionFilter{
		Date:     parseDate("date", c.QueryParam("date"), verrs),
		MovieIDs: parseIDList("movie", c.QueryParam("movie"), verrs),
	}
	if !verrs.Empty() {
		return validationFailed(c, verrs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sessions, err := h.Sessions.List(ctx, f)
	if err != nil {
		return internalError(c, "list movie sessions failed", err)
	}
	return c.JSON(http.StatusOK, h.Views.MovieSessionLists(sessions))
}

// GetMovieSession handles GET /api/cinema/movie_sessions/:id.
func (h *CatalogHandler) GetMovieSession(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, "movie session not found")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	s, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieSessionNotFound) {
			return notFound(c, "movie session not found")
		}
		return internalError(c, "get movie session failed", err)
	}
	return c.JSON(http.StatusOK, h.Views.MovieSessionDetail(*s))
}

type sessionBody struct {
	Movie      json.RawMessage `json:"movie"`
	CinemaHall json.RawMessage `json:"cinema_hall"`
	ShowTime   json.RawMessage `json:"show_time"`
}

func present(raw json.RawMessage) bool { return len(raw) > 0 }

// applySessionBody validates the supplied fields and copies them onto s.
// With partial=false every field is required.
func (h *CatalogHandler) applySessionBody(ctx context.Context, body sessionBody, s *model.MovieSession, partial bool, verrs ValidationErrors) error {
	if present(body.Movie) || !partial {
		switch id, ok := positiveInt(body.Movie); {
		case !present(body.Movie):
			verrs.Add("movie", "this field is required")
		case !ok:
			verrs.Add("movie", "expected an id")
		default:
			if _, err := h.Movies.GetByID(ctx, uint64(id)); err != nil {
				if !errors.Is(err, repository.ErrMovieNotFound) {
					return err
				}
				verrs.Add("movie", "invalid id: object does not exist")
			} else {
				s.MovieID = uint64(id)
			}
		}
	}
	if present(body.CinemaHall) || !partial {
		switch id, ok := positiveInt(body.CinemaHall); {
		case !present(body.CinemaHall):
			verrs.Add("cinema_hall", "this field is required")
		case !ok:
			verrs.Add("cinema_hall", "expected an id")
		default:
			if _, err := h.Halls.GetByID(ctx, uint64(id)); err != nil {
				if !errors.Is(err, repository.ErrCinemaHallNotFound) {
					return err
				}
				verrs.Add("cinema_hall", "invalid id: object does not exist")
			} else {
				s.CinemaHallID = uint64(id)
			}
		}
	}
	if present(body.ShowTime) || !partial {
		var raw string
		if !present(body.ShowTime) {
			verrs.Add("show_time", "this field is required")
		} else if err := json.Unmarshal(body.ShowTime, &raw); err != nil {
			verrs.Add("show_time", "datetime has wrong format")
		} else if t, ok := parseShowTime(raw); !ok {
			verrs.Add("show_time", "datetime has wrong format, use RFC 3339 or YYYY-MM-DD HH:MM:SS")
		} else {
			s.ShowTime = t
		}
	}
	return nil
}

// CreateMovieSession handles POST /api/cinema/movie_sessions.
func (h *CatalogHandler) CreateMovieSession(c echo.Context) error {
	var body sessionBody
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	var s model.MovieSession
	verrs := ValidationErrors{}
	if err := h.applySessionBody(ctx, body, &s, false, verrs); err != nil {
		return internalError(c, "validate movie session failed", err)
	}
	if !verrs.Empty() {
		return validationFailed(c, verrs)
	}
	if err := h.Sessions.Create(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return badRequest(c, "referenced movie or cinema hall does not exist")
		}
		return internalError(c, "create movie session failed", err)
	}
	return c.JSON(http.StatusCreated, serializer.MovieSessionBase(s))
}

// UpdateMovieSession handles PUT (full) and PATCH (partial) on
// /api/cinema/movie_sessions/:id.
func (h *CatalogHandler) UpdateMovieSession(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, "movie session not found")
	}
	var body sessionBody
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	s, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieSessionNotFound) {
			return notFound(c, "movie session not found")
		}
		return internalError(c, "get movie session failed", err)
	}

	partial := c.Request().Method == http.MethodPatch
	verrs := ValidationErrors{}
	if err := h.applySessionBody(ctx, body, s, partial, verrs); err != nil {
		return internalError(c, "validate movie session failed", err)
	}
	if !verrs.Empty() {
		return validationFailed(c, verrs)
	}
	if err := h.Sessions.Update(ctx, s); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return badRequest(c, "referenced movie or cinema hall does not exist")
		}
		return internalError(c, "update movie session failed", err)
	}
	return c.JSON(http.StatusOK, serializer.MovieSessionBase(*s))
}

// DeleteMovieSession handles DELETE /api/cinema/movie_sessions/:id.
func (h *CatalogHandler) DeleteMovieSession(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, "movie session not found")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMovieSessionNotFound) {
			return notFound(c, "movie session not found")
		}
		return internalError(c, "delete movie session failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
