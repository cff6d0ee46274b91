package validation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviesapi/internal/models"
	"moviesapi/internal/store"
)

func fixedNow() time.Time {
	return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
}

func fields(t *testing.T, err error) []string {
	t.Helper()
	failures, ok := Failures(err)
	require.True(t, ok, "expected validation error, got %v", err)

	names := make([]string, 0, len(failures))
	for _, f := range failures {
		names = append(names, f.Field)
	}
	return names
}

func TestOptionsValidatorAcceptsValidOptions(t *testing.T) {
	v := NewOptionsValidator(1, 25)
	v.now = fixedNow

	year := 2024
	err := v.Validate(context.Background(), models.GetAllMoviesOptions{
		YearOfRelease: &year,
		SortField:     models.SortFieldTitle,
		SortOrder:     models.SortAscending,
		Page:          1,
		PageSize:      25,
	})
	assert.NoError(t, err)
}

func TestOptionsValidatorCollectsEveryViolation(t *testing.T) {
	v := NewOptionsValidator(1, 25)
	v.now = fixedNow

	year := 2025
	err := v.Validate(context.Background(), models.GetAllMoviesOptions{
		YearOfRelease: &year,
		SortField:     "Title",
		Page:          0,
		PageSize:      26,
	})

	assert.ElementsMatch(t, []string{"yearOfRelease", "sortField", "page", "pageSize"}, fields(t, err))

	failures, _ := Failures(err)
	for _, f := range failures {
		if f.Field == "sortField" {
			assert.Equal(t, sortFieldMessage, f.Message)
		}
	}
}

func TestOptionsValidatorPageSizeBounds(t *testing.T) {
	v := NewOptionsValidator(5, 10)

	tests := []struct {
		name     string
		pageSize int
		wantErr  bool
	}{
		{name: "below min", pageSize: 4, wantErr: true},
		{name: "min", pageSize: 5},
		{name: "max", pageSize: 10},
		{name: "above max", pageSize: 11, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(context.Background(), models.GetAllMoviesOptions{Page: 1, PageSize: tc.pageSize})
			if tc.wantErr {
				assert.Equal(t, []string{"pageSize"}, fields(t, err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

type slugLookupStub struct {
	movie models.Movie
	err   error
	calls int
}

func (s *slugLookupStub) MovieBySlug(_ context.Context, _ string, _ uuid.NullUUID) (models.Movie, error) {
	s.calls++
	return s.movie, s.err
}

func validMovie() models.Movie {
	return models.Movie{
		ID:            uuid.New(),
		Title:         "Nick The Greek",
		YearOfRelease: 2023,
		Genres:        []string{"Action"},
	}
}

func TestMovieValidatorAcceptsNewSlug(t *testing.T) {
	lookup := &slugLookupStub{err: store.ErrMovieNotFound}
	v := NewMovieValidator(lookup)
	v.now = fixedNow

	assert.NoError(t, v.Validate(context.Background(), validMovie()))
	assert.Equal(t, 1, lookup.calls)
}

func TestMovieValidatorReportsMissingFields(t *testing.T) {
	lookup := &slugLookupStub{err: store.ErrMovieNotFound}
	v := NewMovieValidator(lookup)
	v.now = fixedNow

	err := v.Validate(context.Background(), models.Movie{Title: "   ", Genres: []string{}})

	assert.ElementsMatch(t, []string{"id", "title", "yearOfRelease", "genres"}, fields(t, err))
	assert.Equal(t, 0, lookup.calls)
}

func TestMovieValidatorRejectsFutureYear(t *testing.T) {
	v := NewMovieValidator(&slugLookupStub{err: store.ErrMovieNotFound})
	v.now = fixedNow

	movie := validMovie()
	movie.YearOfRelease = 2025

	assert.Equal(t, []string{"yearOfRelease"}, fields(t, v.Validate(context.Background(), movie)))
}

func TestMovieValidatorSlugOwnership(t *testing.T) {
	movie := validMovie()

	t.Run("owned by another movie", func(t *testing.T) {
		v := NewMovieValidator(&slugLookupStub{movie: models.Movie{ID: uuid.New()}})
		v.now = fixedNow

		err := v.Validate(context.Background(), movie)
		failures, ok := Failures(err)
		require.True(t, ok)
		require.Len(t, failures, 1)
		assert.Equal(t, Failure{Field: "slug", Message: DuplicateSlugMessage}, failures[0])
	})

	t.Run("owned by the same movie", func(t *testing.T) {
		v := NewMovieValidator(&slugLookupStub{movie: models.Movie{ID: movie.ID}})
		v.now = fixedNow

		assert.NoError(t, v.Validate(context.Background(), movie))
	})

	t.Run("lookup failure", func(t *testing.T) {
		v := NewMovieValidator(&slugLookupStub{err: assert.AnError})
		v.now = fixedNow

		err := v.Validate(context.Background(), movie)
		require.Error(t, err)
		_, isValidation := Failures(err)
		assert.False(t, isValidation)
	})
}

func TestValidateRating(t *testing.T) {
	for _, value := range []int{1, 3, 5} {
		assert.NoError(t, ValidateRating(value), "rating %d", value)
	}
	for _, value := range []int{0, -1, 6} {
		err := ValidateRating(value)
		assert.Equal(t, []string{"rating"}, fields(t, err), "rating %d", value)
	}
}

func TestRangeFailuresUseRangeWording(t *testing.T) {
	v := NewOptionsValidator(1, 25)
	v.now = fixedNow

	err := v.Validate(context.Background(), models.GetAllMoviesOptions{Page: 0, PageSize: 10})
	failures, ok := Failures(err)
	require.True(t, ok)
	require.Len(t, failures, 1)
	assert.Equal(t, Failure{Field: "page", Message: "'page' must be greater than or equal to '1'."}, failures[0])

	failures, ok = Failures(ValidateRating(0))
	require.True(t, ok)
	require.Len(t, failures, 1)
	assert.Equal(t, "'rating' must be greater than or equal to '1'.", failures[0].Message)
}
