package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"moviesapi/internal/config"
	"moviesapi/internal/logging"
	"moviesapi/internal/migrations"
	"moviesapi/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("moviesapi stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Up(db.DB); err != nil {
		return err
	}

	app, err := newApplication(cfg, store.New(db), logger)
	if err != nil {
		return err
	}

	if cfg.Bootstrap.SeedDemoData {
		if err := seedDemoMovies(ctx, app.movies, logger); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           app.handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
