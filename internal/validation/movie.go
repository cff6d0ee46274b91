package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"moviesapi/internal/models"
	"moviesapi/internal/store"
)

// DuplicateSlugMessage is reported when another movie owns the derived slug.
const DuplicateSlugMessage = "This movie already exists in the system."

// SlugLookup finds the movie currently owning a slug.
type SlugLookup interface {
	MovieBySlug(ctx context.Context, slug string, userID uuid.NullUUID) (models.Movie, error)
}

type movieRules struct {
	ID            uuid.UUID `json:"id" validate:"required"`
	Title         string    `json:"title" validate:"required"`
	YearOfRelease int       `json:"yearOfRelease" validate:"required"`
	Genres        []string  `json:"genres" validate:"required,min=1"`
}

// MovieValidator checks movie fields and slug uniqueness on create and update.
type MovieValidator struct {
	validate *validator.Validate
	slugs    SlugLookup
	now      func() time.Time
}

// NewMovieValidator builds a validator consulting slugs for uniqueness.
func NewMovieValidator(slugs SlugLookup) *MovieValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &MovieValidator{
		validate: validate,
		slugs:    slugs,
		now:      time.Now,
	}
}

// Validate reports every field violation of movie plus a slug failure when a
// different movie already owns the slug.
func (v *MovieValidator) Validate(ctx context.Context, movie models.Movie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c := newCollector(v.validate)

	rules := movieRules{
		ID:            movie.ID,
		Title:         strings.TrimSpace(movie.Title),
		YearOfRelease: movie.YearOfRelease,
		Genres:        movie.Genres,
	}
	if err := v.validate.StructCtx(ctx, rules); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate movie: %w", err)
		}
		for _, fe := range fieldErrs {
			c.add(fe.Field(), message(fe.Field(), fe))
		}
	}

	if movie.YearOfRelease != 0 {
		c.check("yearOfRelease", movie.YearOfRelease, fmt.Sprintf("lte=%d", v.now().UTC().Year()))
	}

	if rules.Title != "" {
		unique, err := v.slugAvailable(ctx, movie)
		if err != nil {
			return err
		}
		if !unique {
			c.add("slug", DuplicateSlugMessage)
		}
	}

	return c.err()
}

func (v *MovieValidator) slugAvailable(ctx context.Context, movie models.Movie) (bool, error) {
	existing, err := v.slugs.MovieBySlug(ctx, movie.Slug(), uuid.NullUUID{})
	if errors.Is(err, store.ErrMovieNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup slug: %w", err)
	}
	return existing.ID == movie.ID, nil
}
