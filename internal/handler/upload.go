package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sigmmar-api/internal/media"
	"github.com/iliyamo/sigmmar-api/internal/model"
)

// requiredFile returns the uploaded file in field, or a 400 error when the
// request carries none.
func requiredFile(c echo.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err == nil {
		return fh, nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return nil, he
	}
	return nil, echo.NewHTTPError(http.StatusBadRequest, media.ErrNoFile.Error())
}

// optionalUpload stores the file in field when the request carries one
// and returns its public path, or "" when there is no file.
func optionalUpload(ctx context.Context, c echo.Context, up *media.Uploader, field string) (string, error) {
	if !isForm(c) {
		return "", nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return "", he
		}
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid multipart body")
	}
	path, err := up.Save(ctx, fh)
	if err != nil {
		return "", storageError(c, err)
	}
	return path, nil
}

func storageError(c echo.Context, err error) error {
	log.WithError(err).WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Error("store upload")
	return echo.NewHTTPError(http.StatusInternalServerError, "could not store image")
}

// statusField reads a 0/1 status flag from the request body.
func statusField(c echo.Context, name string) (int, error) {
	fields, err := requestFields(c)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v, err := intField(fields, name)
	if err != nil || v == nil || !model.ValidStatus(int(*v)) {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be 0 or 1")
	}
	return int(*v), nil
}
