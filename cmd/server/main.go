package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/campusfix/backend/internal/config"
	"github.com/campusfix/backend/internal/db"
	httpapi "github.com/campusfix/backend/internal/http"
	"github.com/campusfix/backend/internal/notify"
	"github.com/campusfix/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "campusfix-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var sink notify.Sink
	if cfg.NotifyURL == "" {
		sink = notify.LogSink{Logger: logger}
		logger.Info().Msg("using log notification sink")
	} else {
		sink = notify.HTTPSink{BaseURL: cfg.NotifyURL}
	}

	resolver := &service.Resolver{Directory: store, Logger: logger}
	lifecycle := &service.Lifecycle{
		Tickets:  store,
		Loads:    store,
		Resolver: resolver,
		Sink:     sink,
		Logger:   logger,
	}
	distributor := &service.Distributor{
		Tasks:     store,
		Locations: store,
		Workers:   store,
		Sink:      sink,
		Logger:    logger,
	}

	router := httpapi.Router(cfg, store, lifecycle, distributor, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
