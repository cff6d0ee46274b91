package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"moviesapi/internal/models"
)

// movieRow mirrors the projection produced by movieSelect.
type movieRow struct {
	ID            uuid.UUID       `db:"id"`
	Title         string          `db:"title"`
	YearOfRelease int             `db:"yearofrelease"`
	Genres        pq.StringArray  `db:"genres"`
	Rating        sql.NullFloat64 `db:"rating"`
	UserRating    sql.NullInt64   `db:"userrating"`
}

func (r movieRow) toModel() models.Movie {
	movie := models.Movie{
		ID:            r.ID,
		Title:         r.Title,
		YearOfRelease: r.YearOfRelease,
		Genres:        []string(r.Genres),
	}
	if movie.Genres == nil {
		movie.Genres = []string{}
	}
	if r.Rating.Valid {
		rating := r.Rating.Float64
		movie.Rating = &rating
	}
	if r.UserRating.Valid {
		userRating := int(r.UserRating.Int64)
		movie.UserRating = &userRating
	}
	return movie
}

// movieSelect always binds the optional user id as $1.
const movieSelect = `
	SELECT m.id, m.title, m.yearofrelease,
		COALESCE((SELECT array_agg(g.name ORDER BY g.name) FROM genres g WHERE g.movieid = m.id), '{}') AS genres,
		(SELECT round(avg(r.rating), 1)::float8 FROM ratings r WHERE r.movieid = m.id) AS rating,
		(SELECT myr.rating FROM ratings myr WHERE myr.movieid = m.id AND myr.userid = $1) AS userrating
	FROM movies m
`

var sortColumns = map[string]string{
	models.SortFieldTitle:         "m.title",
	models.SortFieldYearOfRelease: "m.yearofrelease",
}

// CreateMovie inserts the movie row and its genres in a single transaction.
func (s *Store) CreateMovie(ctx context.Context, movie models.Movie) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO movies (id, slug, title, yearofrelease)
		VALUES ($1, $2, $3, $4)
	`, movie.ID, movie.Slug(), movie.Title, movie.YearOfRelease); err != nil {
		if mapped := mapMovieInsertError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert movie: %w", err)
	}

	if err := insertGenres(ctx, tx, movie.ID, movie.Genres); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return nil
}

// MovieByID loads a movie with its aggregate rating and, when userID is set,
// that user's own rating.
func (s *Store) MovieByID(ctx context.Context, id uuid.UUID, userID uuid.NullUUID) (models.Movie, error) {
	var row movieRow
	err := s.db.GetContext(ctx, &row, movieSelect+`
		WHERE m.id = $2
	`, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Movie{}, ErrMovieNotFound
		}
		return models.Movie{}, fmt.Errorf("select movie: %w", err)
	}
	return row.toModel(), nil
}

// MovieBySlug loads a movie through its slug.
func (s *Store) MovieBySlug(ctx context.Context, slug string, userID uuid.NullUUID) (models.Movie, error) {
	var row movieRow
	err := s.db.GetContext(ctx, &row, movieSelect+`
		WHERE m.slug = $2
	`, userID, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Movie{}, ErrMovieNotFound
		}
		return models.Movie{}, fmt.Errorf("select movie by slug: %w", err)
	}
	return row.toModel(), nil
}

// MovieExists reports whether a movie with the id is stored.
func (s *Store) MovieExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM movies WHERE id = $1)
	`, id)
	if err != nil {
		return false, fmt.Errorf("check movie: %w", err)
	}
	return exists, nil
}

// ListMovies returns one page of movies matching the options.
func (s *Store) ListMovies(ctx context.Context, opts models.GetAllMoviesOptions) ([]models.Movie, error) {
	args := []any{opts.UserID}
	clauses, args := movieFilter(opts.Title, opts.YearOfRelease, args)

	query := movieSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += orderBy(opts.SortField, opts.SortOrder)

	args = append(args, opts.PageSize)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, opts.Offset())
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var rows []movieRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select movies: %w", err)
	}

	movies := make([]models.Movie, 0, len(rows))
	for _, row := range rows {
		movies = append(movies, row.toModel())
	}
	return movies, nil
}

// CountMovies counts the movies matching the title and year filters, ignoring
// pagination.
func (s *Store) CountMovies(ctx context.Context, title string, yearOfRelease *int) (int, error) {
	clauses, args := movieFilter(title, yearOfRelease, nil)

	query := `SELECT count(m.id) FROM movies m`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

// UpdateMovie replaces the genre set and scalar fields of a movie. It reports
// false, after rolling back, when the movie row does not exist.
func (s *Store) UpdateMovie(ctx context.Context, movie models.Movie) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM genres
		WHERE movieid = $1
	`, movie.ID); err != nil {
		return false, fmt.Errorf("delete genres: %w", err)
	}

	if err := insertGenres(ctx, tx, movie.ID, movie.Genres); err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE movies
		SET slug = $2, title = $3, yearofrelease = $4
		WHERE id = $1
	`, movie.ID, movie.Slug(), movie.Title, movie.YearOfRelease)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrDuplicateSlug
		}
		return false, fmt.Errorf("update movie: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update movie rows: %w", err)
	}
	if affected != 1 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return true, nil
}

// DeleteMovie removes a movie; genres and ratings cascade.
func (s *Store) DeleteMovie(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM movies
		WHERE id = $1
	`, id)
	if err != nil {
		return false, fmt.Errorf("delete movie: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete movie rows: %w", err)
	}
	return affected > 0, nil
}

func insertGenres(ctx context.Context, tx *sqlx.Tx, movieID uuid.UUID, genres []string) error {
	for _, genre := range uniqueGenres(genres) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO genres (movieid, name)
			VALUES ($1, $2)
		`, movieID, genre); err != nil {
			return fmt.Errorf("insert genre: %w", err)
		}
	}
	return nil
}

// movieFilter appends the title and year predicates, numbering placeholders
// after the arguments already bound.
func movieFilter(title string, yearOfRelease *int, args []any) ([]string, []any) {
	var clauses []string

	if title = strings.TrimSpace(title); title != "" {
		args = append(args, "%"+escapeLike(title)+"%")
		clauses = append(clauses, fmt.Sprintf("m.title ILIKE $%d", len(args)))
	}
	if yearOfRelease != nil {
		args = append(args, *yearOfRelease)
		clauses = append(clauses, fmt.Sprintf("m.yearofrelease = $%d", len(args)))
	}

	return clauses, args
}

func orderBy(field string, order models.SortOrder) string {
	column, ok := sortColumns[field]
	if !ok || order == models.SortUnordered {
		return " ORDER BY m.id"
	}
	if order == models.SortDescending {
		return fmt.Sprintf(" ORDER BY %s DESC, m.id", column)
	}
	return fmt.Sprintf(" ORDER BY %s ASC, m.id", column)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
