package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"moviesapi/internal/app/movies"
	"moviesapi/internal/cache"
	"moviesapi/internal/logging"
	"moviesapi/internal/models"
	"moviesapi/internal/validation"
)

// MovieService captures the catalog operations needed by the HTTP handlers.
type MovieService interface {
	Create(ctx context.Context, movie models.Movie) (models.Movie, error)
	GetByID(ctx context.Context, id uuid.UUID, userID uuid.NullUUID) (models.Movie, bool, error)
	GetBySlug(ctx context.Context, slug string, userID uuid.NullUUID) (models.Movie, bool, error)
	List(ctx context.Context, opts models.GetAllMoviesOptions) (models.MoviePage, error)
	Update(ctx context.Context, movie models.Movie, userID uuid.NullUUID) (models.Movie, bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// RatingService describes rating workflows.
type RatingService interface {
	Rate(ctx context.Context, movieID, userID uuid.UUID, rating int) (bool, error)
	DeleteRating(ctx context.Context, movieID, userID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.MovieRating, error)
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config carries identity and paging settings for the handlers.
type Config struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	APIKeyHash      string // bcrypt hash; empty disables X-Api-Key
	DefaultPageSize int
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	movies  MovieService
	ratings RatingService
	health  Pinger
	cache   *cache.OutputCache
	cfg     Config
	logger  zerolog.Logger
}

// New configures a Server. A nil output cache serves every request from the
// services.
func New(movieSvc MovieService, ratingSvc RatingService, health Pinger, outputCache *cache.OutputCache, cfg Config, logger zerolog.Logger) *Server {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	return &Server{
		movies:  movieSvc,
		ratings: ratingSvc,
		health:  health,
		cache:   outputCache,
		cfg:     cfg,
		logger:  logger.With().Str("component", "httpapi").Logger(),
	}
}

// Routes exposes the catalog, rating and health endpoints.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})

	r.HandleFunc("/_health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate)

	api.Handle("/movies", s.cached(s.handleListMovies)).Methods(http.MethodGet)
	api.Handle("/movies", s.requireTrustedMember(s.handleCreateMovie)).Methods(http.MethodPost)
	api.Handle("/movies/{idOrSlug}", s.cached(s.handleGetMovie)).Methods(http.MethodGet)
	api.Handle("/movies/{id}", s.requireTrustedMember(s.handleUpdateMovie)).Methods(http.MethodPut)
	api.Handle("/movies/{id}", s.requireAdmin(s.handleDeleteMovie)).Methods(http.MethodDelete)
	api.Handle("/movies/{id}/ratings", s.requireUser(s.handleRateMovie)).Methods(http.MethodPut)
	api.Handle("/movies/{id}/ratings", s.requireUser(s.handleDeleteRating)).Methods(http.MethodDelete)
	api.Handle("/ratings/me", s.requireUser(s.handleUserRatings)).Methods(http.MethodGet)

	return r
}

// cached serves GET responses through the output cache, keyed per caller
// because movie payloads embed the caller's own rating.
func (s *Server) cached(h http.HandlerFunc) http.Handler {
	if s.cache == nil {
		return h
	}
	return s.cache.Middleware(movies.CacheTag, func(r *http.Request) string {
		if id, ok := identityFrom(r.Context()); ok {
			return id.UserID.String()
		}
		return ""
	})(h)
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}
	if err := s.health.Ping(r.Context()); err != nil {
		reqLogger := logging.FromContext(r.Context(), s.logger)
		reqLogger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Error: "database unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors []validation.Failure `json:"errors"`
}

// writeServiceError maps a service error onto a response. Validation
// failures become 400 with the per-field list; anything else is logged and
// reported as 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if failures, ok := validation.Failures(err); ok {
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: failures})
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	reqLogger := logging.FromContext(r.Context(), s.logger)
	reqLogger.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func writeValidation(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, validationResponse{
		Errors: []validation.Failure{{Field: field, Message: message}},
	})
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
