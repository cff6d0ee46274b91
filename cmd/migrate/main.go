package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"moviesapi/internal/config"
	"moviesapi/internal/logging"
	"moviesapi/internal/migrations"
)

func main() {
	if len(os.Args) != 2 || (os.Args[1] != "up" && os.Args[1] != "down") {
		fmt.Fprintln(os.Stderr, "Usage: migrate [up|down]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if os.Args[1] == "up" {
		if err := migrations.Up(db); err != nil {
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
		logger.Info().Msg("Migrations applied successfully")
		return
	}

	if err := migrations.Down(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to rollback migrations")
	}
	logger.Info().Msg("Migrations rolled back successfully")
}
