package store

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"moviesapi/internal/models"
)

type ratingKey struct {
	userID  uuid.UUID
	movieID uuid.UUID
}

// Memory keeps movies and ratings in process memory. It mirrors the Postgres
// Store, including the unique slug index and cascading deletes, and is meant
// for tests and local runs without a database.
type Memory struct {
	mu      sync.RWMutex
	movies  map[uuid.UUID]models.Movie
	slugs   map[string]uuid.UUID
	ratings map[ratingKey]int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		movies:  make(map[uuid.UUID]models.Movie),
		slugs:   make(map[string]uuid.UUID),
		ratings: make(map[ratingKey]int),
	}
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) CreateMovie(ctx context.Context, movie models.Movie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.movies[movie.ID]; ok {
		return ErrMovieExists
	}
	slug := movie.Slug()
	if _, ok := m.slugs[slug]; ok {
		return ErrDuplicateSlug
	}

	m.movies[movie.ID] = storedMovie(movie)
	m.slugs[slug] = movie.ID
	return nil
}

func (m *Memory) MovieByID(ctx context.Context, id uuid.UUID, userID uuid.NullUUID) (models.Movie, error) {
	if err := ctx.Err(); err != nil {
		return models.Movie{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	movie, ok := m.movies[id]
	if !ok {
		return models.Movie{}, ErrMovieNotFound
	}
	return m.withRatings(movie, userID), nil
}

func (m *Memory) MovieBySlug(ctx context.Context, slug string, userID uuid.NullUUID) (models.Movie, error) {
	if err := ctx.Err(); err != nil {
		return models.Movie{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.slugs[slug]
	if !ok {
		return models.Movie{}, ErrMovieNotFound
	}
	return m.withRatings(m.movies[id], userID), nil
}

func (m *Memory) MovieExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.movies[id]
	return ok, nil
}

func (m *Memory) ListMovies(ctx context.Context, opts models.GetAllMoviesOptions) ([]models.Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.filter(opts.Title, opts.YearOfRelease)
	sortMovies(matched, opts.SortField, opts.SortOrder)

	result := []models.Movie{}
	start := opts.Offset()
	if start < 0 || start >= len(matched) || opts.PageSize <= 0 {
		return result, nil
	}
	end := start + opts.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	for _, movie := range matched[start:end] {
		result = append(result, m.withRatings(movie, opts.UserID))
	}
	return result, nil
}

func (m *Memory) CountMovies(ctx context.Context, title string, yearOfRelease *int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.filter(title, yearOfRelease)), nil
}

func (m *Memory) UpdateMovie(ctx context.Context, movie models.Movie) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.movies[movie.ID]
	if !ok {
		return false, nil
	}

	oldSlug, newSlug := existing.Slug(), movie.Slug()
	if owner, taken := m.slugs[newSlug]; taken && owner != movie.ID {
		return false, ErrDuplicateSlug
	}

	delete(m.slugs, oldSlug)
	m.slugs[newSlug] = movie.ID
	m.movies[movie.ID] = storedMovie(movie)
	return true, nil
}

func (m *Memory) DeleteMovie(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	movie, ok := m.movies[id]
	if !ok {
		return false, nil
	}

	delete(m.movies, id)
	delete(m.slugs, movie.Slug())
	for key := range m.ratings {
		if key.movieID == id {
			delete(m.ratings, key)
		}
	}
	return true, nil
}

func (m *Memory) RateMovie(ctx context.Context, movieID, userID uuid.UUID, rating int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// ratings.movieid references movies.id
	if _, ok := m.movies[movieID]; !ok {
		return false, nil
	}
	m.ratings[ratingKey{userID: userID, movieID: movieID}] = rating
	return true, nil
}

func (m *Memory) DeleteRating(ctx context.Context, movieID, userID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := ratingKey{userID: userID, movieID: movieID}
	if _, ok := m.ratings[key]; !ok {
		return false, nil
	}
	delete(m.ratings, key)
	return true, nil
}

func (m *Memory) Rating(ctx context.Context, movieID uuid.UUID) (*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.average(movieID), nil
}

func (m *Memory) RatingFor(ctx context.Context, movieID, userID uuid.UUID) (*float64, *int, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.average(movieID), m.userRating(movieID, uuid.NullUUID{UUID: userID, Valid: true}), nil
}

func (m *Memory) RatingsForUser(ctx context.Context, userID uuid.UUID) ([]models.MovieRating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ratings := []models.MovieRating{}
	for key, value := range m.ratings {
		if key.userID != userID {
			continue
		}
		movie, ok := m.movies[key.movieID]
		if !ok {
			continue
		}
		ratings = append(ratings, models.MovieRating{
			MovieID: key.movieID,
			Slug:    movie.Slug(),
			Rating:  value,
		})
	}
	sort.Slice(ratings, func(i, j int) bool {
		return ratings[i].Slug < ratings[j].Slug
	})
	return ratings, nil
}

func (m *Memory) filter(title string, yearOfRelease *int) []models.Movie {
	needle := strings.ToLower(strings.TrimSpace(title))

	var matched []models.Movie
	for _, movie := range m.movies {
		if needle != "" && !strings.Contains(strings.ToLower(movie.Title), needle) {
			continue
		}
		if yearOfRelease != nil && movie.YearOfRelease != *yearOfRelease {
			continue
		}
		matched = append(matched, movie)
	}
	return matched
}

func (m *Memory) withRatings(movie models.Movie, userID uuid.NullUUID) models.Movie {
	movie = cloneMovie(movie)
	movie.Rating = m.average(movie.ID)
	movie.UserRating = m.userRating(movie.ID, userID)
	return movie
}

func (m *Memory) average(movieID uuid.UUID) *float64 {
	var sum, count int
	for key, value := range m.ratings {
		if key.movieID == movieID {
			sum += value
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := math.Round(float64(sum)/float64(count)*10) / 10
	return &avg
}

func (m *Memory) userRating(movieID uuid.UUID, userID uuid.NullUUID) *int {
	if !userID.Valid {
		return nil
	}
	value, ok := m.ratings[ratingKey{userID: userID.UUID, movieID: movieID}]
	if !ok {
		return nil
	}
	return &value
}

func sortMovies(movies []models.Movie, field string, order models.SortOrder) {
	compare := func(a, b models.Movie) int {
		switch field {
		case models.SortFieldTitle:
			return strings.Compare(a.Title, b.Title)
		case models.SortFieldYearOfRelease:
			return a.YearOfRelease - b.YearOfRelease
		}
		return 0
	}
	if order == models.SortUnordered {
		compare = func(models.Movie, models.Movie) int { return 0 }
	}

	sort.SliceStable(movies, func(i, j int) bool {
		c := compare(movies[i], movies[j])
		if order == models.SortDescending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return movies[i].ID.String() < movies[j].ID.String()
	})
}

// storedMovie drops derived rating fields and repeated genres. Genres are
// kept sorted by name, the order the Postgres store aggregates them in.
func storedMovie(movie models.Movie) models.Movie {
	movie.Rating = nil
	movie.UserRating = nil
	movie.Genres = uniqueGenres(movie.Genres)
	sort.Strings(movie.Genres)
	return movie
}

func cloneMovie(src models.Movie) models.Movie {
	clone := src
	clone.Genres = make([]string, len(src.Genres))
	copy(clone.Genres, src.Genres)
	return clone
}
