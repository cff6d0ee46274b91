package ratings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"moviesapi/internal/app/movies"
	"moviesapi/internal/models"
	"moviesapi/internal/validation"
)

// Store defines the persistence hooks for ratings workflows.
type Store interface {
	MovieExists(ctx context.Context, id uuid.UUID) (bool, error)
	RateMovie(ctx context.Context, movieID, userID uuid.UUID, rating int) (bool, error)
	DeleteRating(ctx context.Context, movieID, userID uuid.UUID) (bool, error)
	RatingsForUser(ctx context.Context, userID uuid.UUID) ([]models.MovieRating, error)
}

// Service coordinates rating updates and queries.
type Service interface {
	Rate(ctx context.Context, movieID, userID uuid.UUID, rating int) (bool, error)
	DeleteRating(ctx context.Context, movieID, userID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.MovieRating, error)
}

type service struct {
	store  Store
	cache  movies.CacheInvalidator
	logger zerolog.Logger
}

// New constructs a ratings Service backed by the given Store. Cached movie
// responses are evicted after each change since they embed rating aggregates.
func New(store Store, cache movies.CacheInvalidator, logger zerolog.Logger) Service {
	return &service{
		store:  store,
		cache:  cache,
		logger: logger.With().Str("component", "ratings").Logger(),
	}
}

func (s *service) Rate(ctx context.Context, movieID, userID uuid.UUID, rating int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if err := validation.ValidateRating(rating); err != nil {
		return false, err
	}

	exists, err := s.store.MovieExists(ctx, movieID)
	if err != nil {
		return false, err
	}
	if !exists {
		s.logger.Debug().Str("movie_id", movieID.String()).Msg("rating target missing")
		return false, nil
	}

	ok, err := s.store.RateMovie(ctx, movieID, userID, rating)
	if err != nil {
		return false, fmt.Errorf("rate movie: %w", err)
	}
	if ok {
		s.logger.Info().
			Str("movie_id", movieID.String()).
			Str("user_id", userID.String()).
			Int("rating", rating).
			Msg("movie rated")
		s.evict(ctx)
	}
	return ok, nil
}

func (s *service) DeleteRating(ctx context.Context, movieID, userID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ok, err := s.store.DeleteRating(ctx, movieID, userID)
	if err != nil {
		return false, fmt.Errorf("delete rating: %w", err)
	}
	if ok {
		s.logger.Info().Str("movie_id", movieID.String()).Str("user_id", userID.String()).Msg("rating deleted")
		s.evict(ctx)
	}
	return ok, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.MovieRating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.RatingsForUser(ctx, userID)
}

func (s *service) evict(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.EvictByTag(context.WithoutCancel(ctx), movies.CacheTag); err != nil {
		s.logger.Warn().Err(err).Str("tag", movies.CacheTag).Msg("cache eviction failed")
	}
}
