package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/repository"
)

// ImageStore persists uploaded images and returns their media-relative path.
type ImageStore interface {
	Save(ctx context.Context, dir, ext string, r io.Reader) (string, error)
}

// ListMovies handles GET /api/cinema/movies with the optional title, genres
// and actors filters.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	verrs := ValidationErrors{}
	f := model.MovieFilter{
		Title:    strings.TrimSpace(c.QueryParam("title")),
		GenreIDs: parseIDList("genres", c.QueryParam("genres"), verrs),
		ActorIDs: parseIDList("actors", c.QueryParam("actors"), verrs),
	}
	if !verrs.Empty() {
		return validationFailed(c, verrs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	movies, err := h.Movies.List(ctx, f)
	if err != nil {
		return internalError(c, "list movies failed", err)
	}
	return c.JSON(http.StatusOK, h.Views.MovieLists(movies))
}

// GetMovie handles GET /api/cinema/movies/:id.
func (h *CatalogHandler) GetMovie(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, "movie not found")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return notFound(c, "movie not found")
		}
		return internalError(c, "get movie failed", err)
	}
	return c.JSON(http.StatusOK, h.Views.MovieDetail(*m))
}

// movieInput is the decoded create payload.  Duration stays raw until
// validation so a wrongly typed value becomes a field error, not a bind
// error.
type movieInput struct {
	Title       string
	Description string
	Duration    json.RawMessage
	Genres      []uint64
	Actors      []uint64
}

// decodeMovieInput reads the payload from JSON or form data.  Malformed
// relation lists are recorded in verrs.
func decodeMovieInput(c echo.Context, verrs ValidationErrors) (movieInput, error) {
	var in movieInput
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEApplicationForm) || strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		form, err := c.FormParams()
		if err != nil {
			return in, err
		}
		in.Title = form.Get("title")
		in.Description = form.Get("description")
		if v, ok := form["duration"]; ok && len(v) > 0 {
			b, _ := json.Marshal(v[0])
			in.Duration = b
		}
		var ok bool
		if in.Genres, ok = formIDList(form["genres"]); !ok {
			verrs.Add("genres", "expected a list of ids")
		}
		if in.Actors, ok = formIDList(form["actors"]); !ok {
			verrs.Add("actors", "expected a list of ids")
		}
		return in, nil
	}

	var body struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Duration    json.RawMessage `json:"duration"`
		Genres      json.RawMessage `json:"genres"`
		Actors      json.RawMessage `json:"actors"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return in, err
	}
	in.Title, in.Description, in.Duration = body.Title, body.Description, body.Duration
	var ok bool
	if in.Genres, ok = idList(body.Genres); !ok {
		verrs.Add("genres", "expected a list of ids")
	}
	if in.Actors, ok = idList(body.Actors); !ok {
		verrs.Add("actors", "expected a list of ids")
	}
	return in, nil
}

// CreateMovie handles POST /api/cinema/movies.  All validation, including
// the existence of the referenced genres and actors, happens before the
// insert.
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	verrs := ValidationErrors{}
	in, err := decodeMovieInput(c, verrs)
	if err != nil {
		return badRequest(c, "invalid request body")
	}

	m := model.Movie{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
	}
	requireText(verrs, "title", m.Title, 255)
	requireText(verrs, "description", m.Description, 0)
	if len(in.Duration) == 0 || string(in.Duration) == "null" {
		verrs.Add("duration", "this field is required")
	} else if d, ok := positiveInt(in.Duration); ok {
		m.Duration = d
	} else {
		verrs.Add("duration", "a valid positive integer is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if !verrs.Has("genres") {
		if err := h.checkRefs(ctx, verrs, "genres", in.Genres, h.Genres.FindMissing); err != nil {
			return internalError(c, "lookup genres failed", err)
		}
	}
	if !verrs.Has("actors") {
		if err := h.checkRefs(ctx, verrs, "actors", in.Actors, h.Actors.FindMissing); err != nil {
			return internalError(c, "lookup actors failed", err)
		}
	}
	if !verrs.Empty() {
		return validationFailed(c, verrs)
	}

	for _, id := range in.Genres {
		m.Genres = append(m.Genres, model.Genre{ID: id})
	}
	for _, id := range in.Actors {
		m.Actors = append(m.Actors, model.Actor{ID: id})
	}
	if err := h.Movies.Create(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return badRequest(c, "referenced genre or actor does not exist")
		}
		return internalError(c, "create movie failed", err)
	}

	created, err := h.Movies.GetByID(ctx, m.ID)
	if err != nil {
		return internalError(c, "reload movie failed", err)
	}
	return c.JSON(http.StatusCreated, h.Views.MovieDetail(*created))
}

func (h *CatalogHandler) checkRefs(ctx context.Context, verrs ValidationErrors, field string, ids []uint64,
	findMissing func(context.Context, []uint64) ([]uint64, error)) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := findMissing(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range missing {
		verrs.Add(field, fmt.Sprintf("invalid id %d: object does not exist", id))
	}
	return nil
}
