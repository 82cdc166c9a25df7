package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sigmmar-api/internal/queue"
	"github.com/iliyamo/sigmmar-api/internal/service"
)

// errorJSON writes the error body every failing endpoint returns.
func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// dbError logs err with the request id and answers 500.
func dbError(c echo.Context, err error, op string) error {
	log.WithError(err).WithFields(log.Fields{
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"op":         op,
	}).Error("database error")
	return errorJSON(c, http.StatusInternalServerError, "database error")
}

// parseID reads the positive integer :id path parameter.
func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryContext bounds the request context by the per-query timeout.
func queryContext(c echo.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.Request().Context())
	}
	return context.WithTimeout(c.Request().Context(), timeout)
}

func isForm(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEMultipartForm) || strings.HasPrefix(ct, echo.MIMEApplicationForm)
}

// requestFields returns the body fields of a multipart, urlencoded or JSON
// request.  Form values are strings; JSON values keep their decoded type.
// An empty body yields an empty map.
func requestFields(c echo.Context) (map[string]any, error) {
	out := map[string]any{}
	if isForm(c) {
		if _, err := c.FormParams(); err != nil {
			return nil, err
		}
		for k, v := range c.Request().PostForm {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
		return out, nil
	}
	if err := new(echo.DefaultBinder).BindBody(c, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// stringField returns fields[name] as text, or nil when it is absent or
// null.
func stringField(fields map[string]any, name string) *string {
	v, ok := fields[name]
	if !ok || v == nil {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}
	return &s
}

var errNotInteger = errors.New("not an integer")

// intField returns fields[name] as an integer, nil when absent, null or an
// empty string, and errNotInteger for anything else that does not parse.
func intField(fields map[string]any, name string) (*int64, error) {
	v, ok := fields[name]
	if !ok || v == nil {
		return nil, nil
	}
	var (
		n   int64
		err error
	)
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, nil
		}
		n, err = strconv.ParseInt(t, 10, 64)
	case json.Number:
		if n, err = t.Int64(); err != nil {
			// 1.0 and 1e2 arrive as json.Number too
			var f float64
			if f, err = t.Float64(); err == nil {
				n, err = integral(f)
			}
		}
	case float64:
		n, err = integral(t)
	default:
		return nil, errNotInteger
	}
	if err != nil {
		return nil, errNotInteger
	}
	return &n, nil
}

func integral(f float64) (int64, error) {
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, errNotInteger
	}
	return int64(f), nil
}

// publish sends a change event.  Failures are logged only; the write they
// describe has already succeeded.
func publish(c echo.Context, p service.Publisher, ev queue.ChangeEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(c.Request().Context(), ev); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"entity": ev.Entity,
			"action": ev.Action,
			"id":     ev.ID,
		}).Warn("change event not published")
	}
}
