// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/sigmmar-api/internal/handler"
	"github.com/iliyamo/sigmmar-api/internal/middleware"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Areas    *handler.AreaHandler
	SubAreas *handler.SubAreaHandler
	Logins   *handler.RecordHandler
	Messages *handler.RecordHandler
	Media    *handler.MediaHandler
	Health   *handler.HealthHandler
}

// Options configures the middleware chain.
type Options struct {
	CORSOrigins []string
	UploadLimit string // echo BodyLimit syntax, e.g. "10M"
	RateLimit   echo.MiddlewareFunc
	Cache       echo.MiddlewareFunc
}

// New returns an echo instance with the JSON serializer, the error
// handler and the global middleware installed.
func New(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger())
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: origins}))
	if opts.RateLimit != nil {
		e.Use(opts.RateLimit)
	}
	return e
}

// RegisterRoutes mounts every endpoint.  Resource groups share the response
// cache; multipart routes carry the upload size limit.
func RegisterRoutes(e *echo.Echo, h Handlers, opts Options) {
	e.GET("/healthz", handler.Health)
	if h.Health != nil {
		e.GET("/readyz", h.Health.Ready)
	}
	e.GET("/media/:file", h.Media.Serve)

	var mw []echo.MiddlewareFunc
	if opts.Cache != nil {
		mw = append(mw, opts.Cache)
	}
	limit := opts.UploadLimit
	if limit == "" {
		limit = "10M"
	}
	upload := echomw.BodyLimit(limit)

	areas := e.Group("/areas", mw...)
	areas.GET("", h.Areas.List)
	areas.POST("", h.Areas.Create, upload)
	areas.GET("/:id", h.Areas.Get)
	areas.PUT("/:id", h.Areas.Update, upload)
	areas.PUT("/:id/estado", h.Areas.UpdateStatus)
	areas.DELETE("/:id", h.Areas.Delete)

	subs := e.Group("/sub_areas", mw...)
	subs.GET("", h.SubAreas.List)
	subs.POST("", h.SubAreas.Create, upload)
	subs.GET("/:id", h.SubAreas.Get)
	subs.PUT("/:id", h.SubAreas.Update, upload)
	subs.PUT("/:id/estado", h.SubAreas.UpdateStatus)
	subs.DELETE("/:id", h.SubAreas.Delete)

	registerRecords(e.Group("/logins", mw...), h.Logins)
	registerRecords(e.Group("/mensajes", mw...), h.Messages)
}

func registerRecords(g *echo.Group, h *handler.RecordHandler) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
