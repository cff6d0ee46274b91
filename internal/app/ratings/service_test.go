package ratings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviesapi/internal/models"
	"moviesapi/internal/store"
	"moviesapi/internal/validation"
)

type countingCache struct {
	calls int
}

func (c *countingCache) EvictByTag(context.Context, string) error {
	c.calls++
	return nil
}

func seededStore(t *testing.T) (*store.Memory, models.Movie) {
	t.Helper()

	mem := store.NewMemory()
	movie := models.Movie{ID: uuid.New(), Title: "Heat", YearOfRelease: 1995, Genres: []string{"Crime"}}
	require.NoError(t, mem.CreateMovie(context.Background(), movie))
	return mem, movie
}

func TestRateOverwritesPreviousValue(t *testing.T) {
	ctx := context.Background()
	mem, movie := seededStore(t)
	cache := &countingCache{}
	svc := New(mem, cache, zerolog.Nop())

	user := uuid.New()
	ok, err := svc.Rate(ctx, movie.ID, user, 3)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.Rate(ctx, movie.ID, user, 5)
	require.NoError(t, err)
	require.True(t, ok)

	ratings, err := svc.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5, ratings[0].Rating)
	assert.Equal(t, "heat-1995", ratings[0].Slug)

	avg, err := mem.Rating(ctx, movie.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, 5.0, *avg)
	assert.Equal(t, 2, cache.calls)
}

func TestRateRejectsOutOfRangeValues(t *testing.T) {
	mem, movie := seededStore(t)
	svc := New(mem, nil, zerolog.Nop())

	for _, value := range []int{0, 6, -3} {
		_, err := svc.Rate(context.Background(), movie.ID, uuid.New(), value)
		failures, ok := validation.Failures(err)
		require.True(t, ok, "rating %d", value)
		assert.Equal(t, "rating", failures[0].Field)
	}
}

func TestRateMissingMovie(t *testing.T) {
	mem, _ := seededStore(t)
	cache := &countingCache{}
	svc := New(mem, cache, zerolog.Nop())

	ok, err := svc.Rate(context.Background(), uuid.New(), uuid.New(), 4)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, cache.calls)
}

func TestDeleteRating(t *testing.T) {
	ctx := context.Background()
	mem, movie := seededStore(t)
	svc := New(mem, &countingCache{}, zerolog.Nop())

	user := uuid.New()
	_, err := svc.Rate(ctx, movie.ID, user, 4)
	require.NoError(t, err)

	ok, err := svc.DeleteRating(ctx, movie.ID, user)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.DeleteRating(ctx, movie.ID, user)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRatingsUnreachableAfterMovieDeleted(t *testing.T) {
	ctx := context.Background()
	mem, movie := seededStore(t)
	svc := New(mem, nil, zerolog.Nop())

	user := uuid.New()
	_, err := svc.Rate(ctx, movie.ID, user, 4)
	require.NoError(t, err)

	_, err = mem.DeleteMovie(ctx, movie.ID)
	require.NoError(t, err)

	ratings, err := svc.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, ratings)
}

type cancelAwareCache struct {
	calls int
}

func (c *cancelAwareCache) EvictByTag(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.calls++
	return nil
}

func TestRateEvictsEvenWhenCallerCancelled(t *testing.T) {
	mem, movie := seededStore(t)
	cache := &cancelAwareCache{}
	svc := New(mem, cache, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	user := uuid.New()
	ok, err := svc.Rate(ctx, movie.ID, user, 4)
	require.NoError(t, err)
	require.True(t, ok)

	// The request is abandoned after the rating committed.
	cancel()
	svc.(*service).evict(ctx)

	assert.Equal(t, 2, cache.calls)
}
