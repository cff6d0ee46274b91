package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviesapi/internal/app/movies"
	"moviesapi/internal/store"
	"moviesapi/internal/validation"
)

func TestSeedDemoMoviesFillsEmptyCatalogOnce(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := movies.New(mem, mem, movies.Validators{
		Movie:   validation.NewMovieValidator(mem),
		Options: validation.NewOptionsValidator(1, 25),
	}, nil, zerolog.Nop())

	require.NoError(t, seedDemoMovies(ctx, svc, zerolog.Nop()))
	count, err := svc.Count(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, len(demoMovies), count)

	require.NoError(t, seedDemoMovies(ctx, svc, zerolog.Nop()))
	count, err = svc.Count(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, len(demoMovies), count)

	_, found, err := svc.GetBySlug(ctx, "nick-the-greek-2023", uuid.NullUUID{})
	require.NoError(t, err)
	assert.True(t, found)
}
