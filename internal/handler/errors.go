package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// ErrorHandler renders every error that reaches echo as {"error": "..."}.
// Handlers return *echo.HTTPError for client mistakes; anything else is
// reported as a bare 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		case nil:
			msg = http.StatusText(code)
		default:
			msg = fmt.Sprint(m)
		}
	}
	if code >= http.StatusInternalServerError {
		log.WithError(err).WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Error("request failed")
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, echo.Map{"error": msg})
	}
	if werr != nil {
		log.WithError(werr).Warn("write error response")
	}
}
