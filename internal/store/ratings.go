package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"moviesapi/internal/models"
)

// RateMovie stores the user's rating, overwriting any earlier value for the
// same movie.
func (s *Store) RateMovie(ctx context.Context, movieID, userID uuid.UUID, rating int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ratings (userid, movieid, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (userid, movieid) DO UPDATE
		SET rating = EXCLUDED.rating
	`, userID, movieID, rating)
	if err != nil {
		return false, fmt.Errorf("upsert rating: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert rating rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteRating removes the user's rating of a movie. It reports false when
// no rating existed.
func (s *Store) DeleteRating(ctx context.Context, movieID, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM ratings
		WHERE movieid = $1 AND userid = $2
	`, movieID, userID)
	if err != nil {
		return false, fmt.Errorf("delete rating: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rating rows: %w", err)
	}
	return affected > 0, nil
}

// Rating returns the average rating of a movie rounded to one decimal, or
// nil when nobody rated it.
func (s *Store) Rating(ctx context.Context, movieID uuid.UUID) (*float64, error) {
	var avg sql.NullFloat64
	err := s.db.GetContext(ctx, &avg, `
		SELECT round(avg(rating), 1)::float8
		FROM ratings
		WHERE movieid = $1
	`, movieID)
	if err != nil {
		return nil, fmt.Errorf("select rating: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	value := avg.Float64
	return &value, nil
}

// RatingFor returns the movie's average rating alongside the user's own.
func (s *Store) RatingFor(ctx context.Context, movieID, userID uuid.UUID) (*float64, *int, error) {
	var row struct {
		Rating     sql.NullFloat64 `db:"rating"`
		UserRating sql.NullInt64   `db:"userrating"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT round(avg(rating), 1)::float8 AS rating,
			(SELECT rating FROM ratings WHERE movieid = $1 AND userid = $2) AS userrating
		FROM ratings
		WHERE movieid = $1
	`, movieID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("select rating for user: %w", err)
	}

	var (
		avg  *float64
		mine *int
	)
	if row.Rating.Valid {
		value := row.Rating.Float64
		avg = &value
	}
	if row.UserRating.Valid {
		value := int(row.UserRating.Int64)
		mine = &value
	}
	return avg, mine, nil
}

// RatingsForUser lists every rating the user made together with the movie slug.
func (s *Store) RatingsForUser(ctx context.Context, userID uuid.UUID) ([]models.MovieRating, error) {
	ratings := []models.MovieRating{}
	err := s.db.SelectContext(ctx, &ratings, `
		SELECT r.movieid, m.slug, r.rating
		FROM ratings r
		INNER JOIN movies m ON r.movieid = m.id
		WHERE r.userid = $1
		ORDER BY m.slug ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select user ratings: %w", err)
	}
	return ratings, nil
}
