package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sigmmar-api/internal/config"
	"github.com/iliyamo/sigmmar-api/internal/database"
	"github.com/iliyamo/sigmmar-api/internal/handler"
	"github.com/iliyamo/sigmmar-api/internal/logger"
	"github.com/iliyamo/sigmmar-api/internal/media"
	"github.com/iliyamo/sigmmar-api/internal/middleware"
	"github.com/iliyamo/sigmmar-api/internal/queue"
	"github.com/iliyamo/sigmmar-api/internal/repository"
	"github.com/iliyamo/sigmmar-api/internal/router"
	"github.com/iliyamo/sigmmar-api/internal/service"
)

func main() {
	// 1. Config and logging
	cfg := config.Load()
	if err := logger.Init(config.LoadLogConfig()); err != nil {
		log.WithError(err).Fatal("init logger")
	}
	mediaCfg := config.LoadMediaConfig()
	eventsCfg := config.LoadEventsConfig()

	// 2. Database
	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	// 3. Redis backed middleware; both fall back to pass-through without Redis.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	// 4. Media store
	store, err := media.NewStore(context.Background(), mediaCfg)
	if err != nil {
		log.WithError(err).Fatal("open media store")
	}
	uploader := media.NewUploader(store)

	// 5. Change events
	var publisher service.Publisher = service.NopPublisher{}
	if eventsCfg.Enabled {
		publisher = service.NewAMQPPublisher(eventsCfg.URL, eventsCfg.Queue)
	}
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if eventsCfg.ConsumerEnabled {
		consumer := queue.NewConsumer(eventsCfg)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("change consumer stopped")
			}
		}()
	}

	// 6. Handlers and routes
	timeout := cfg.DBQueryTimeout
	logins := handler.NewRecordHandler(queue.EntityLogin, repository.NewRecordRepo(db, "login", "log_id"), publisher, timeout)
	if len(cfg.LoginHashFields) > 0 {
		logins.WithHashedFields(cfg.LoginHashFields, cfg.BcryptCost)
	}
	handlers := router.Handlers{
		Areas:    handler.NewAreaHandler(repository.NewAreaRepo(db), uploader, publisher, timeout),
		SubAreas: handler.NewSubAreaHandler(repository.NewSubAreaRepo(db), uploader, publisher, timeout),
		Logins:   logins,
		Messages: handler.NewRecordHandler(queue.EntityMessage, repository.NewRecordRepo(db, "mensaje", "men_id"), publisher, timeout),
		Media:    handler.NewMediaHandler(store),
		Health:   handler.NewHealthHandler(db),
	}
	opts := router.Options{
		CORSOrigins: cfg.CORSOrigins,
		UploadLimit: mediaCfg.MaxBytes,
		RateLimit:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:       middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}
	e := router.New(opts)
	router.RegisterRoutes(e, handlers, opts)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Serve until SIGINT/SIGTERM, then drain for up to 15s.
	go func() {
		log.WithFields(log.Fields{"addr": server.Addr, "env": cfg.Env, "driver": cfg.DBDriver}).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
	log.Info("server stopped")
}
