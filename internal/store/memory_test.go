package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviesapi/internal/models"
)

func newMovie(title string, year int, genres ...string) models.Movie {
	return models.Movie{ID: uuid.New(), Title: title, YearOfRelease: year, Genres: genres}
}

func TestMemoryCreateThenGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	movie := newMovie("Nick The Greek", 2023, "Action", "Comedy")
	require.NoError(t, m.CreateMovie(ctx, movie))

	got, err := m.MovieByID(ctx, movie.ID, uuid.NullUUID{})
	require.NoError(t, err)
	assert.Equal(t, movie.Title, got.Title)
	assert.Equal(t, movie.YearOfRelease, got.YearOfRelease)
	assert.ElementsMatch(t, movie.Genres, got.Genres)
	assert.Nil(t, got.Rating)

	bySlug, err := m.MovieBySlug(ctx, "nick-the-greek-2023", uuid.NullUUID{})
	require.NoError(t, err)
	assert.Equal(t, movie.ID, bySlug.ID)
}

func TestMemoryRejectsDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CreateMovie(ctx, newMovie("Heat", 1995, "Crime")))
	err := m.CreateMovie(ctx, newMovie("heat!", 1995, "Drama"))
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestMemoryUpdateAllowsOwnSlug(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	movie := newMovie("Heat", 1995, "Crime")
	other := newMovie("Ronin", 1998, "Action")
	require.NoError(t, m.CreateMovie(ctx, movie))
	require.NoError(t, m.CreateMovie(ctx, other))

	movie.Genres = []string{"Thriller"}
	ok, err := m.UpdateMovie(ctx, movie)
	require.NoError(t, err)
	assert.True(t, ok)

	other.Title = "Heat"
	other.YearOfRelease = 1995
	_, err = m.UpdateMovie(ctx, other)
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	ok, err = m.UpdateMovie(ctx, newMovie("Missing", 2000, "Drama"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRatingsOverwriteAndAggregate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	movie := newMovie("Heat", 1995, "Crime")
	require.NoError(t, m.CreateMovie(ctx, movie))

	alice, bob := uuid.New(), uuid.New()
	_, err := m.RateMovie(ctx, movie.ID, alice, 3)
	require.NoError(t, err)
	_, err = m.RateMovie(ctx, movie.ID, alice, 5)
	require.NoError(t, err)
	_, err = m.RateMovie(ctx, movie.ID, bob, 2)
	require.NoError(t, err)

	avg, mine, err := m.RatingFor(ctx, movie.ID, alice)
	require.NoError(t, err)
	require.NotNil(t, avg)
	require.NotNil(t, mine)
	assert.Equal(t, 3.5, *avg)
	assert.Equal(t, 5, *mine)

	ratings, err := m.RatingsForUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, models.MovieRating{MovieID: movie.ID, Slug: "heat-1995", Rating: 5}, ratings[0])
}

func TestMemoryAggregateRoundsToOneDecimal(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	movie := newMovie("Heat", 1995, "Crime")
	require.NoError(t, m.CreateMovie(ctx, movie))
	for _, v := range []int{5, 4, 4} {
		_, err := m.RateMovie(ctx, movie.ID, uuid.New(), v)
		require.NoError(t, err)
	}

	avg, err := m.Rating(ctx, movie.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, 4.3, *avg)
}

func TestMemoryDeleteCascadesRatings(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	movie := newMovie("Heat", 1995, "Crime")
	require.NoError(t, m.CreateMovie(ctx, movie))
	user := uuid.New()
	_, err := m.RateMovie(ctx, movie.ID, user, 4)
	require.NoError(t, err)

	ok, err := m.DeleteMovie(ctx, movie.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = m.MovieByID(ctx, movie.ID, uuid.NullUUID{})
	assert.ErrorIs(t, err, ErrMovieNotFound)
	_, err = m.MovieBySlug(ctx, "heat-1995", uuid.NullUUID{})
	assert.ErrorIs(t, err, ErrMovieNotFound)

	ratings, err := m.RatingsForUser(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, ratings)

	ok, err = m.DeleteMovie(ctx, movie.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryListPagination(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < 15; i++ {
		require.NoError(t, m.CreateMovie(ctx, newMovie(fmt.Sprintf("Movie %02d", i), 2000+i, "Drama")))
	}

	page, err := m.ListMovies(ctx, models.GetAllMoviesOptions{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page, 5)

	count, err := m.CountMovies(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 15, count)
}

func TestMemoryListFilterAndSort(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CreateMovie(ctx, newMovie("The Matrix", 1999, "Sci-Fi")))
	require.NoError(t, m.CreateMovie(ctx, newMovie("The Matrix Reloaded", 2003, "Sci-Fi")))
	require.NoError(t, m.CreateMovie(ctx, newMovie("Heat", 1995, "Crime")))

	movies, err := m.ListMovies(ctx, models.GetAllMoviesOptions{
		Title:     "matrix",
		SortField: models.SortFieldYearOfRelease,
		SortOrder: models.SortDescending,
		Page:      1,
		PageSize:  10,
	})
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "The Matrix Reloaded", movies[0].Title)
	assert.Equal(t, "The Matrix", movies[1].Title)

	year := 1995
	count, err := m.CountMovies(ctx, "", &year)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	err := m.CreateMovie(ctx, newMovie("Heat", 1995, "Crime"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryOrdersGenresByName(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	movie := newMovie("Heat", 1995, "Thriller", "Crime", "Crime")
	require.NoError(t, m.CreateMovie(ctx, movie))

	got, err := m.MovieByID(ctx, movie.ID, uuid.NullUUID{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Crime", "Thriller"}, got.Genres)
}
