package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrMovieNotFound signals a missing movie record.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrDuplicateSlug indicates another movie already owns the derived slug.
	ErrDuplicateSlug = errors.New("movie slug already exists")
	// ErrMovieExists indicates a movie with the same id is already stored.
	ErrMovieExists = errors.New("movie already exists")
)

const (
	slugIndex      = "movies_slug_idx"
	moviesPkey     = "movies_pkey"
	uniqueViolated = "23505"
)

// Store provides movie and rating persistence backed by Postgres.
type Store struct {
	db *sqlx.DB
}

// New sets up a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolated
	}
	return false
}

// mapMovieInsertError translates constraint violations on the movies table.
func mapMovieInsertError(err error) error {
	if !isUniqueViolation(err) {
		return nil
	}
	var pgErr *pgconn.PgError
	errors.As(err, &pgErr)
	switch pgErr.ConstraintName {
	case moviesPkey:
		return ErrMovieExists
	default:
		return ErrDuplicateSlug
	}
}

// uniqueGenres drops blank and repeated labels, preserving order.
func uniqueGenres(genres []string) []string {
	seen := make(map[string]struct{}, len(genres))
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
