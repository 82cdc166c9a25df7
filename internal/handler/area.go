package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sigmmar-api/internal/media"
	"github.com/iliyamo/sigmmar-api/internal/model"
	"github.com/iliyamo/sigmmar-api/internal/queue"
	"github.com/iliyamo/sigmmar-api/internal/repository"
	"github.com/iliyamo/sigmmar-api/internal/service"
)

// Multipart field names carrying the image of an area or sub-area.
const (
	areaImageField    = "area_img"
	subAreaImageField = "sub_img"
)

// AreaHandler serves /areas.
type AreaHandler struct {
	Repo     *repository.AreaRepo
	Uploader *media.Uploader
	Events   service.Publisher
	Timeout  time.Duration
}

// NewAreaHandler panics when a required dependency is nil.
func NewAreaHandler(repo *repository.AreaRepo, up *media.Uploader, events service.Publisher, timeout time.Duration) *AreaHandler {
	if repo == nil || up == nil {
		panic("nil dependency passed to NewAreaHandler")
	}
	if events == nil {
		events = service.NopPublisher{}
	}
	return &AreaHandler{Repo: repo, Uploader: up, Events: events, Timeout: timeout}
}

// List handles GET /areas.
func (h *AreaHandler) List(c echo.Context) error {
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	items, err := h.Repo.List(ctx)
	if err != nil {
		return dbError(c, err, "list areas")
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /areas/:id.
func (h *AreaHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	a, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAreaNotFound) {
			return errorJSON(c, http.StatusNotFound, "area not found")
		}
		return dbError(c, err, "get area")
	}
	return c.JSON(http.StatusOK, a)
}

// Create handles POST /areas.  The image is required and stored before the
// row is inserted; the row starts active.
func (h *AreaHandler) Create(c echo.Context) error {
	fh, err := requiredFile(c, areaImageField)
	if err != nil {
		return err
	}
	fields, err := requestFields(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	path, err := h.Uploader.Save(ctx, fh)
	if err != nil {
		return storageError(c, err)
	}

	a := &model.NewArea{
		Nombre:      stringField(fields, "area_nombre"),
		Descripcion: stringField(fields, "area_descripcion"),
		ImagePath:   path,
		Estado:      model.StatusActive,
	}
	if err := h.Repo.Create(ctx, a); err != nil {
		h.Uploader.Discard(context.WithoutCancel(ctx), path)
		return dbError(c, err, "create area")
	}
	publish(c, h.Events, queue.NewChangeEvent(queue.EntityArea, queue.ActionCreated, a.ID, 1))
	return c.JSON(http.StatusCreated, a)
}

// Update handles PUT /areas/:id.  Only the provided fields are written;
// the image column changes only when a new file is uploaded.
func (h *AreaHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	fields, err := requestFields(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	upd := model.AreaUpdate{
		Nombre:      stringField(fields, "area_nombre"),
		Descripcion: stringField(fields, "area_descripcion"),
	}

	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	path, err := optionalUpload(ctx, c, h.Uploader, areaImageField)
	if err != nil {
		return err
	}
	if path != "" {
		upd.ImagePath = &path
	}
	if upd.Empty() {
		return errorJSON(c, http.StatusBadRequest, "no fields to update")
	}

	res, err := h.Repo.Update(ctx, id, upd)
	if err != nil {
		if path != "" {
			h.Uploader.Discard(context.WithoutCancel(ctx), path)
		}
		return dbError(c, err, "update area")
	}
	// a fresh image name always changes an existing row
	if res.AffectedRows == 0 && path != "" {
		h.Uploader.Discard(context.WithoutCancel(ctx), path)
	}
	publish(c, h.Events, queue.NewChangeEvent(queue.EntityArea, queue.ActionUpdated, id, res.AffectedRows))
	return c.JSON(http.StatusOK, res)
}

// UpdateStatus handles PUT /areas/:id/estado with {"area_estado": 0|1}.
func (h *AreaHandler) UpdateStatus(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	estado, err := statusField(c, "area_estado")
	if err != nil {
		return err
	}
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	res, err := h.Repo.UpdateStatus(ctx, id, estado)
	if err != nil {
		return dbError(c, err, "update area status")
	}
	publish(c, h.Events, queue.NewChangeEvent(queue.EntityArea, queue.ActionStatusChanged, id, res.AffectedRows))
	return c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /areas/:id.  Deleting a missing row succeeds with
// affectedRows 0.
func (h *AreaHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	res, err := h.Repo.Delete(ctx, id)
	if err != nil {
		return dbError(c, err, "delete area")
	}
	publish(c, h.Events, queue.NewChangeEvent(queue.EntityArea, queue.ActionDeleted, id, res.AffectedRows))
	return c.JSON(http.StatusOK, res)
}
