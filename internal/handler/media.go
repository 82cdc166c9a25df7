package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sigmmar-api/internal/media"
)

// MediaHandler serves stored uploads under /media.
type MediaHandler struct {
	Store media.Store
}

func NewMediaHandler(store media.Store) *MediaHandler {
	return &MediaHandler{Store: store}
}

// Serve handles GET /media/:file.
func (h *MediaHandler) Serve(c echo.Context) error {
	name := c.Param("file")
	if !media.ValidName(name) {
		return errorJSON(c, http.StatusNotFound, "file not found")
	}
	obj, err := h.Store.Open(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) || errors.Is(err, media.ErrInvalidName) {
			return errorJSON(c, http.StatusNotFound, "file not found")
		}
		log.WithError(err).WithField("file", name).Error("open media file")
		return errorJSON(c, http.StatusInternalServerError, "storage error")
	}
	defer obj.Close()

	ct := obj.ContentType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	hdr := c.Response().Header()
	if obj.Size >= 0 {
		hdr.Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	}
	if !obj.ModTime.IsZero() {
		hdr.Set(echo.HeaderLastModified, obj.ModTime.UTC().Format(http.TimeFormat))
	}
	hdr.Set("X-Content-Type-Options", "nosniff")
	return c.Stream(http.StatusOK, ct, obj)
}
