package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"moviesapi/internal/models"
)

const moviesPath = "/api/movies"

type movieRequest struct {
	Title         string   `json:"title"`
	YearOfRelease int      `json:"yearOfRelease"`
	Genres        []string `json:"genres"`
}

func (req movieRequest) movie(id uuid.UUID) models.Movie {
	return models.Movie{
		ID:            id,
		Title:         req.Title,
		YearOfRelease: req.YearOfRelease,
		Genres:        req.Genres,
	}
}

type movieResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	YearOfRelease int       `json:"yearOfRelease"`
	Rating        *float64  `json:"rating"`
	UserRating    *int      `json:"userRating"`
	Genres        []string  `json:"genres"`
}

func newMovieResponse(m models.Movie) movieResponse {
	genres := m.Genres
	if genres == nil {
		genres = []string{}
	}
	return movieResponse{
		ID:            m.ID,
		Title:         m.Title,
		Slug:          m.Slug(),
		YearOfRelease: m.YearOfRelease,
		Rating:        m.Rating,
		UserRating:    m.UserRating,
		Genres:        genres,
	}
}

type moviesResponse struct {
	Items    []movieResponse `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Total    int             `json:"total"`
	Prev     *string         `json:"prev"`
	Next     *string         `json:"next"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	opts, field, msg := s.listOptions(r.URL.Query())
	if field != "" {
		writeValidation(w, field, msg)
		return
	}
	opts.UserID = userID(r.Context())

	page, err := s.movies.List(r.Context(), opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	items := make([]movieResponse, 0, len(page.Movies))
	for _, m := range page.Movies {
		items = append(items, newMovieResponse(m))
	}
	resp := moviesResponse{
		Items:    items,
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
	}
	if page.HasPrev() {
		resp.Prev = pageLink(r.URL.Query(), page.Page-1, page.PageSize)
	}
	if page.HasNext() {
		resp.Next = pageLink(r.URL.Query(), page.Page+1, page.PageSize)
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	writeJSON(w, http.StatusOK, resp)
}

// listOptions reads the list query. Malformed numbers are reported as a
// field and message; range checks are left to the options validator.
func (s *Server) listOptions(q url.Values) (models.GetAllMoviesOptions, string, string) {
	opts := models.GetAllMoviesOptions{
		Title:    strings.TrimSpace(q.Get("title")),
		Page:     1,
		PageSize: s.cfg.DefaultPageSize,
	}

	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return opts, "year", "'year' must be a whole number."
		}
		opts.YearOfRelease = &year
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return opts, "page", "'page' must be a whole number."
		}
		opts.Page = page
	}
	if raw := q.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return opts, "pageSize", "'pageSize' must be a whole number."
		}
		opts.PageSize = size
	}

	if sortBy := strings.TrimSpace(q.Get("sortBy")); sortBy != "" {
		opts.SortOrder = models.SortAscending
		if strings.HasPrefix(sortBy, "-") {
			opts.SortOrder = models.SortDescending
		}
		opts.SortField = strings.Trim(sortBy, "+-")
	}
	return opts, "", ""
}

// pageLink rebuilds the list URL for another page, keeping every other query
// parameter of the current request.
func pageLink(q url.Values, page, pageSize int) *string {
	values := url.Values{}
	for key, vals := range q {
		switch strings.ToLower(key) {
		case "page", "pagesize":
			continue
		}
		values[key] = vals
	}
	values.Set("page", strconv.Itoa(page))
	values.Set("pageSize", strconv.Itoa(pageSize))

	link := moviesPath + "?" + values.Encode()
	return &link
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	idOrSlug := mux.Vars(r)["idOrSlug"]
	caller := userID(r.Context())

	var (
		movie models.Movie
		found bool
		err   error
	)
	if id, perr := uuid.Parse(idOrSlug); perr == nil {
		movie, found, err = s.movies.GetByID(r.Context(), id, caller)
	} else {
		movie, found, err = s.movies.GetBySlug(r.Context(), idOrSlug, caller)
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "movie not found"})
		return
	}
	writeJSON(w, http.StatusOK, newMovieResponse(movie))
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	created, err := s.movies.Create(r.Context(), req.movie(uuid.New()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", moviesPath+"/"+created.ID.String())
	writeJSON(w, http.StatusCreated, newMovieResponse(created))
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	var req movieRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	updated, found, err := s.movies.Update(r.Context(), req.movie(id), userID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "movie not found"})
		return
	}
	writeJSON(w, http.StatusOK, newMovieResponse(updated))
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	deleted, err := s.movies.Delete(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "movie not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// movieID parses the {id} route variable. Anything but a uuid names no movie.
func movieID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "movie not found"})
		return uuid.Nil, false
	}
	return id, true
}
