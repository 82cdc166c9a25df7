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

// SubAreaHandler serves /sub_areas.  It mirrors AreaHandler with the
// extra area_id reference.
type SubAreaHandler struct {
	Repo     *repository.SubAreaRepo
	Uploader *media.Uploader
	Events   service.Publisher
	Timeout  time.Duration
}

func NewSubAreaHandler(repo *repository.SubAreaRepo, up *media.Uploader, events service.Publisher, timeout time.Duration) *SubAreaHandler {
	if repo == nil || up == nil {
		panic("nil dependency passed to NewSubAreaHandler")
	}
	if events == nil {
		events = service.NopPublisher{}
	}
	return &SubAreaHandler{Repo: repo, Uploader: up, Events: events, Timeout: timeout}
}

func (h *SubAreaHandler) List(c echo.Context) error {
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	items, err := h.Repo.List(ctx)
	if err != nil {
		return dbError(c, err, "list sub-areas")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *SubAreaHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	s, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSubAreaNotFound) {
			return errorJSON(c, http.StatusNotFound, "sub-area not found")
		}
		return dbError(c, err, "get sub-area")
	}
	return c.JSON(http.StatusOK, s)
}

func areaIDField(fields map[string]any) (*int64, error) {
	v, err := intField(fields, "area_id")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "area_id must be an integer")
	}
	return v, nil
}

// writeError maps a failed insert or update of a sub-area.
func (h *SubAreaHandler) writeError(c echo.Context, err error, op string) error {
	if errors.Is(err, repository.ErrAreaReference) {
		return errorJSON(c, http.StatusConflict, err.Error())
	}
	return dbError(c, err, op)
}

// Create handles POST /sub_areas.
func (h *SubAreaHandler) Create(c echo.Context) error {
	fh, err := requiredFile(c, subAreaImageField)
	if err != nil {
		return err
	}
	fields, err := requestFields(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	areaID, err := areaIDField(fields)
	if err != nil {
		return err
	}

	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	path, err := h.Uploader.Save(ctx, fh)
	if err != nil {
		return storageError(c, err)
	}

	s := &model.NewSubArea{
		AreaID:      areaID,
		Nombre:      stringField(fields, "sub_nombre"),
		Descripcion: stringField(fields, "sub_descripcion"),
		ImagePath:   path,
		Estado:      model.StatusActive,
	}
	if err := h.Repo.Create(ctx, s); err != nil {
		h.Uploader.Discard(context.WithoutCancel(ctx), path)
		return h.writeError(c, err, "create sub-area")
	}
	publish(c, h.Events, queue.NewChangeEvent(queue.EntitySubArea, queue.ActionCreated, s.ID, 1))
	return c.JSON(http.StatusCreated, s)
}

// Update handles PUT /sub_areas/:id.
func (h *SubAreaHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	fields, err := requestFields(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	areaID, err := areaIDField(fields)
	if err != nil {
		return err
	}
	upd := model.SubAreaUpdate{
		AreaID:      areaID,
		Nombre:      stringField(fields, "sub_nombre"),
		Descripcion: stringField(fields, "sub_descripcion"),
	}

	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	path, err := optionalUpload(ctx, c, h.Uploader, subAreaImageField)
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
		return h.writeError(c, err, "update sub-area")
	}
	// a fresh image name always changes an existing row
	if res.AffectedRows == 0 && path != "" {
		h.Uploader.Discard(context.WithoutCancel(ctx), path)
	}
	publish(c, h.Events, queue.NewChangeEvent(queue.EntitySubArea, queue.ActionUpdated, id, res.AffectedRows))
	return c.JSON(http.StatusOK, res)
}

// UpdateStatus handles PUT /sub_areas/:id/estado with {"sub_estado": 0|1}.
func (h *SubAreaHandler) UpdateStatus(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	estado, err := statusField(c, "sub_estado")
	if err != nil {
		return err
	}
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	res, err := h.Repo.UpdateStatus(ctx, id, estado)
	if err != nil {
		return dbError(c, err, "update sub-area status")
	}
	publish(c, h.Events, queue.NewChangeEvent(queue.EntitySubArea, queue.ActionStatusChanged, id, res.AffectedRows))
	return c.JSON(http.StatusOK, res)
}

func (h *SubAreaHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	res, err := h.Repo.Delete(ctx, id)
	if err != nil {
		return dbError(c, err, "delete sub-area")
	}
	publish(c, h.Events, queue.NewChangeEvent(queue.EntitySubArea, queue.ActionDeleted, id, res.AffectedRows))
	return c.JSON(http.StatusOK, res)
}
