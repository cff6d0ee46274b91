package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"moviesapi/internal/app/movies"
	"moviesapi/internal/models"
)

var demoMovies = []models.Movie{
	{Title: "Heat", YearOfRelease: 1995, Genres: []string{"Crime", "Thriller"}},
	{Title: "The Matrix", YearOfRelease: 1999, Genres: []string{"Action", "Sci-Fi"}},
	{Title: "Spirited Away", YearOfRelease: 2001, Genres: []string{"Animation", "Fantasy"}},
	{Title: "Nick The Greek", YearOfRelease: 2023, Genres: []string{"Action", "Comedy"}},
	{Title: "Arrival", YearOfRelease: 2016, Genres: []string{"Drama", "Sci-Fi"}},
}

// seedDemoMovies fills an empty catalog through the movie service so the
// demo data passes the same validation as API writes.
func seedDemoMovies(ctx context.Context, svc movies.Service, logger zerolog.Logger) error {
	count, err := svc.Count(ctx, "", nil)
	if err != nil {
		return fmt.Errorf("count movies: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, m := range demoMovies {
		m.ID = uuid.New()
		m.Genres = append([]string(nil), m.Genres...)
		if _, err := svc.Create(ctx, m); err != nil {
			return fmt.Errorf("seed %q: %w", m.Title, err)
		}
	}
	logger.Info().Int("movies", len(demoMovies)).Msg("demo catalog seeded")
	return nil
}
