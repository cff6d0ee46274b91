package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"moviesapi/internal/app/movies"
	"moviesapi/internal/app/ratings"
	"moviesapi/internal/cache"
	"moviesapi/internal/config"
	"moviesapi/internal/http/middleware"
	"moviesapi/internal/httpapi"
	"moviesapi/internal/store"
	"moviesapi/internal/validation"
)

// application holds the wired services shared by the HTTP layer and the
// startup seed.
type application struct {
	movies  movies.Service
	ratings ratings.Service
	handler http.Handler
}

func newApplication(cfg *config.Config, dataStore *store.Store, logger zerolog.Logger) (*application, error) {
	cacheCfg := cache.DefaultConfig()
	cacheCfg.Capacity = cfg.Cache.Capacity
	cacheCfg.TTL = cfg.Cache.TTL
	if cacheCfg.NumShards > cacheCfg.Capacity {
		cacheCfg.NumShards = cacheCfg.Capacity
	}
	outputCache, err := cache.New(cacheCfg, logger)
	if err != nil {
		return nil, err
	}

	validators := movies.Validators{
		Movie:   validation.NewMovieValidator(dataStore),
		Options: validation.NewOptionsValidator(cfg.Pagination.MinPageSize, cfg.Pagination.MaxPageSize),
	}
	movieSvc := movies.New(dataStore, dataStore, validators, outputCache, logger)
	ratingSvc := ratings.New(dataStore, outputCache, logger)

	api := httpapi.New(movieSvc, ratingSvc, dataStore, outputCache, httpapi.Config{
		JWTSecret:       cfg.Security.JWTSecret,
		JWTIssuer:       cfg.Security.JWTIssuer,
		JWTAudience:     cfg.Security.JWTAudience,
		APIKeyHash:      cfg.Security.APIKeyHash,
		DefaultPageSize: cfg.Pagination.DefaultPageSize,
	}, logger)

	handler := api.Routes()
	handler = middleware.CORS(cfg.Server.AllowedOrigins)(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.RequestLogging(logger)(handler)

	return &application{
		movies:  movieSvc,
		ratings: ratingSvc,
		handler: handler,
	}, nil
}
