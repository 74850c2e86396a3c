package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/repository"
)

// maxImageBytes caps poster uploads.
const maxImageBytes = 10 << 20

// imageTypes maps sniffed content types to stored file extensions.
var imageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// UploadMovieImage handles POST /api/cinema/movies/:id/upload-image.  The
// multipart field "image" must contain a JPEG, PNG, GIF or WebP file; the
// type is detected from the content, not from the client's header.
func (h *CatalogHandler) UploadMovieImage(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, "movie not found")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Movies.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return notFound(c, "movie not found")
		}
		return internalError(c, "get movie failed", err)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return validationFailed(c, ValidationErrors{"image": {"no file was submitted"}})
	}
	if fh.Size > maxImageBytes {
		return validationFailed(c, ValidationErrors{"image": {"file is too large"}})
	}
	f, err := fh.Open()
	if err != nil {
		return internalError(c, "open upload failed", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return internalError(c, "read upload failed", err)
	}
	head = head[:n]
	ext, ok := imageTypes[http.DetectContentType(head)]
	if !ok {
		return validationFailed(c, ValidationErrors{"image": {"upload a valid image"}})
	}

	path, err := h.Images.Save(ctx, "movies", ext, io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		return internalError(c, "store image failed", err)
	}
	if err := h.Movies.SetImage(ctx, id, path); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return notFound(c, "movie not found")
		}
		return internalError(c, "update movie image failed", err)
	}
	return c.JSON(http.StatusOK, h.Views.MovieImage(id, path))
}
