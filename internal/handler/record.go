package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sigmmar-api/internal/model"
	"github.com/iliyamo/sigmmar-api/internal/queue"
	"github.com/iliyamo/sigmmar-api/internal/repository"
	"github.com/iliyamo/sigmmar-api/internal/service"
	"github.com/iliyamo/sigmmar-api/internal/utils"
)

// RecordHandler serves a table without a fixed schema: /logins and
// /mensajes.  Request bodies are JSON objects whose keys are column names.
type RecordHandler struct {
	Entity  string // entity name used in events and error messages
	Repo    *repository.RecordRepo
	Events  service.Publisher
	Timeout time.Duration

	// HashFields lists columns whose string values are stored as bcrypt
	// hashes.
	HashFields []string
	BcryptCost int
}

func NewRecordHandler(entity string, repo *repository.RecordRepo, events service.Publisher, timeout time.Duration) *RecordHandler {
	if repo == nil {
		panic("nil repository passed to NewRecordHandler")
	}
	if events == nil {
		events = service.NopPublisher{}
	}
	return &RecordHandler{Entity: entity, Repo: repo, Events: events, Timeout: timeout}
}

// WithHashedFields enables bcrypt hashing of fields on create and update.
func (h *RecordHandler) WithHashedFields(fields []string, cost int) *RecordHandler {
	h.HashFields = fields
	h.BcryptCost = cost
	return h
}

func (h *RecordHandler) notFound(c echo.Context) error {
	return errorJSON(c, http.StatusNotFound, h.Entity+" not found")
}

// body decodes the request into a record ready to be written.
func (h *RecordHandler) body(c echo.Context) (model.Record, error) {
	fields, err := requestFields(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(h.HashFields) > 0 {
		if err := utils.HashFields(fields, h.HashFields, h.BcryptCost); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return model.Record(fields), nil
}

// writeError maps repository write errors onto responses.
func (h *RecordHandler) writeError(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNoFields):
		return errorJSON(c, http.StatusBadRequest, "request body has no fields")
	case errors.Is(err, repository.ErrInvalidField):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	return dbError(c, err, op)
}

func (h *RecordHandler) List(c echo.Context) error {
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	items, err := h.Repo.List(ctx)
	if err != nil {
		return dbError(c, err, "list "+h.Entity)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *RecordHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	rec, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return h.notFound(c)
		}
		return dbError(c, err, "get "+h.Entity)
	}
	return c.JSON(http.StatusOK, rec)
}

// Create inserts the body and answers with the body plus the new id.
func (h *RecordHandler) Create(c echo.Context) error {
	rec, err := h.body(c)
	if err != nil {
		return err
	}
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	id, err := h.Repo.Create(ctx, rec)
	if err != nil {
		return h.writeError(c, err, "create "+h.Entity)
	}
	publish(c, h.Events, queue.NewChangeEvent(h.Entity, queue.ActionCreated, id, 1))

	out := make(model.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	out["id"] = id
	return c.JSON(http.StatusCreated, out)
}

func (h *RecordHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	rec, err := h.body(c)
	if err != nil {
		return err
	}
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	res, err := h.Repo.Update(ctx, id, rec)
	if err != nil {
		return h.writeError(c, err, "update "+h.Entity)
	}
	publish(c, h.Events, queue.NewChangeEvent(h.Entity, queue.ActionUpdated, id, res.AffectedRows))
	return c.JSON(http.StatusOK, res)
}

func (h *RecordHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := queryContext(c, h.Timeout)
	defer cancel()
	res, err := h.Repo.Delete(ctx, id)
	if err != nil {
		return dbError(c, err, "delete "+h.Entity)
	}
	publish(c, h.Events, queue.NewChangeEvent(h.Entity, queue.ActionDeleted, id, res.AffectedRows))
	return c.JSON(http.StatusOK, res)
}
