package blobstore

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medilink/medilink/internal/platform/web"
)

// Handler serves stored files at their public URL. Buckets are public,
// so no auth is applied here.
type Handler struct {
	store BlobStore
}

func NewHandler(store BlobStore) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/files/:id", h.Download)
}

func (h *Handler) Download(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.Validation("Invalid file id")
	}

	content, meta, err := h.store.Download(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return web.NotFound("File not found")
		}
		return web.Upstream("Failed to fetch file", err)
	}
	defer content.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+meta.FileName+`"`)
	data, err := io.ReadAll(content)
	if err != nil {
		return web.Upstream("Failed to read file", err)
	}
	return c.Blob(http.StatusOK, meta.ContentType, data)
}
