package movies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"moviesapi/internal/models"
	"moviesapi/internal/store"
	"moviesapi/internal/validation"
)

// CacheTag labels every cached response derived from movie data.
const CacheTag = "movies"

// Store captures the persistence needs for movie workflows.
type Store interface {
	CreateMovie(ctx context.Context, movie models.Movie) error
	MovieByID(ctx context.Context, id uuid.UUID, userID uuid.NullUUID) (models.Movie, error)
	MovieBySlug(ctx context.Context, slug string, userID uuid.NullUUID) (models.Movie, error)
	MovieExists(ctx context.Context, id uuid.UUID) (bool, error)
	ListMovies(ctx context.Context, opts models.GetAllMoviesOptions) ([]models.Movie, error)
	CountMovies(ctx context.Context, title string, yearOfRelease *int) (int, error)
	UpdateMovie(ctx context.Context, movie models.Movie) (bool, error)
	DeleteMovie(ctx context.Context, id uuid.UUID) (bool, error)
}

// RatingStore supplies the rating aggregates attached after an update.
type RatingStore interface {
	Rating(ctx context.Context, movieID uuid.UUID) (*float64, error)
	RatingFor(ctx context.Context, movieID, userID uuid.UUID) (*float64, *int, error)
}

// MovieValidator checks a movie before it is written.
type MovieValidator interface {
	Validate(ctx context.Context, movie models.Movie) error
}

// OptionsValidator checks list options before a query runs.
type OptionsValidator interface {
	Validate(ctx context.Context, opts models.GetAllMoviesOptions) error
}

// CacheInvalidator evicts cached responses carrying a tag.
type CacheInvalidator interface {
	EvictByTag(ctx context.Context, tag string) error
}

// Validators groups the checks run by the Service.
type Validators struct {
	Movie   MovieValidator
	Options OptionsValidator
}

// Service coordinates movie operations. Reads report absence through the
// boolean result; writes report a missing target the same way.
type Service interface {
	Create(ctx context.Context, movie models.Movie) (models.Movie, error)
	GetByID(ctx context.Context, id uuid.UUID, userID uuid.NullUUID) (models.Movie, bool, error)
	GetBySlug(ctx context.Context, slug string, userID uuid.NullUUID) (models.Movie, bool, error)
	List(ctx context.Context, opts models.GetAllMoviesOptions) (models.MoviePage, error)
	Count(ctx context.Context, title string, yearOfRelease *int) (int, error)
	Update(ctx context.Context, movie models.Movie, userID uuid.NullUUID) (models.Movie, bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	store      Store
	ratings    RatingStore
	validators Validators
	cache      CacheInvalidator
	logger     zerolog.Logger
}

// New constructs a Service. A nil cache disables eviction.
func New(store Store, ratings RatingStore, validators Validators, cache CacheInvalidator, logger zerolog.Logger) Service {
	if cache == nil {
		cache = noopCache{}
	}
	return &service{
		store:      store,
		ratings:    ratings,
		validators: validators,
		cache:      cache,
		logger:     logger.With().Str("component", "movies").Logger(),
	}
}

func (s *service) Create(ctx context.Context, movie models.Movie) (models.Movie, error) {
	if err := ctx.Err(); err != nil {
		return models.Movie{}, err
	}

	movie = normalize(movie)
	if err := s.validators.Movie.Validate(ctx, movie); err != nil {
		return models.Movie{}, err
	}

	if err := s.store.CreateMovie(ctx, movie); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateSlug):
			return models.Movie{}, validation.NewError(validation.Failure{Field: "slug", Message: validation.DuplicateSlugMessage})
		case errors.Is(err, store.ErrMovieExists):
			return models.Movie{}, validation.NewError(validation.Failure{Field: "id", Message: "A movie with this id already exists."})
		}
		return models.Movie{}, fmt.Errorf("create movie: %w", err)
	}

	s.logger.Info().Str("movie_id", movie.ID.String()).Str("slug", movie.Slug()).Msg("movie created")
	s.evict(ctx)
	return movie, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID, userID uuid.NullUUID) (models.Movie, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Movie{}, false, err
	}

	movie, err := s.store.MovieByID(ctx, id, userID)
	return s.found(movie, err, "id", id.String())
}

func (s *service) GetBySlug(ctx context.Context, slug string, userID uuid.NullUUID) (models.Movie, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Movie{}, false, err
	}

	movie, err := s.store.MovieBySlug(ctx, slug, userID)
	return s.found(movie, err, "slug", slug)
}

func (s *service) List(ctx context.Context, opts models.GetAllMoviesOptions) (models.MoviePage, error) {
	if err := ctx.Err(); err != nil {
		return models.MoviePage{}, err
	}

	if err := s.validators.Options.Validate(ctx, opts); err != nil {
		return models.MoviePage{}, err
	}

	movies, err := s.store.ListMovies(ctx, opts)
	if err != nil {
		return models.MoviePage{}, err
	}
	total, err := s.store.CountMovies(ctx, opts.Title, opts.YearOfRelease)
	if err != nil {
		return models.MoviePage{}, err
	}

	return models.MoviePage{
		Movies:   movies,
		Page:     opts.Page,
		PageSize: opts.PageSize,
		Total:    total,
	}, nil
}

func (s *service) Count(ctx context.Context, title string, yearOfRelease *int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.store.CountMovies(ctx, title, yearOfRelease)
}

func (s *service) Update(ctx context.Context, movie models.Movie, userID uuid.NullUUID) (models.Movie, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Movie{}, false, err
	}

	movie = normalize(movie)
	if err := s.validators.Movie.Validate(ctx, movie); err != nil {
		return models.Movie{}, false, err
	}

	exists, err := s.store.MovieExists(ctx, movie.ID)
	if err != nil {
		return models.Movie{}, false, err
	}
	if !exists {
		s.logger.Debug().Str("movie_id", movie.ID.String()).Msg("update target missing")
		return models.Movie{}, false, nil
	}

	updated, err := s.store.UpdateMovie(ctx, movie)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			return models.Movie{}, false, validation.NewError(validation.Failure{Field: "slug", Message: validation.DuplicateSlugMessage})
		}
		return models.Movie{}, false, fmt.Errorf("update movie: %w", err)
	}
	if !updated {
		s.logger.Debug().Str("movie_id", movie.ID.String()).Msg("update affected no rows")
		return models.Movie{}, false, nil
	}

	s.logger.Info().Str("movie_id", movie.ID.String()).Msg("movie updated")
	s.evict(ctx)

	if userID.Valid {
		movie.Rating, movie.UserRating, err = s.ratings.RatingFor(ctx, movie.ID, userID.UUID)
	} else {
		movie.Rating, err = s.ratings.Rating(ctx, movie.ID)
		movie.UserRating = nil
	}
	if err != nil {
		return models.Movie{}, false, fmt.Errorf("attach rating: %w", err)
	}

	return movie, true, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	deleted, err := s.store.DeleteMovie(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete movie: %w", err)
	}
	if !deleted {
		s.logger.Debug().Str("movie_id", id.String()).Msg("delete target missing")
		return false, nil
	}

	s.logger.Info().Str("movie_id", id.String()).Msg("movie deleted")
	s.evict(ctx)
	return true, nil
}

func (s *service) found(movie models.Movie, err error, key, value string) (models.Movie, bool, error) {
	if errors.Is(err, store.ErrMovieNotFound) {
		s.logger.Debug().Str(key, value).Msg("movie not found")
		return models.Movie{}, false, nil
	}
	if err != nil {
		return models.Movie{}, false, err
	}
	return movie, true, nil
}

// evict runs after a committed write, detached from the caller's
// cancellation; failures leave stale entries until they expire and are only
// logged.
func (s *service) evict(ctx context.Context) {
	if err := s.cache.EvictByTag(context.WithoutCancel(ctx), CacheTag); err != nil {
		s.logger.Warn().Err(err).Str("tag", CacheTag).Msg("cache eviction failed")
	}
}

func normalize(movie models.Movie) models.Movie {
	movie.Title = strings.TrimSpace(movie.Title)
	genres := make([]string, 0, len(movie.Genres))
	for _, g := range movie.Genres {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	movie.Genres = genres
	movie.Rating = nil
	movie.UserRating = nil
	return movie
}

type noopCache struct{}

func (noopCache) EvictByTag(context.Context, string) error { return nil }
