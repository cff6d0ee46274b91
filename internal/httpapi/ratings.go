package httpapi

import (
	"net/http"

	"moviesapi/internal/models"
)

type rateRequest struct {
	Rating int `json:"rating"`
}

type ratingsResponse struct {
	Ratings []models.MovieRating `json:"ratings"`
}

func (s *Server) handleRateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	caller, _ := identityFrom(r.Context())
	rated, err := s.ratings.Rate(r.Context(), id, caller.UserID, req.Rating)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !rated {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "movie not found"})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	caller, _ := identityFrom(r.Context())
	deleted, err := s.ratings.DeleteRating(r.Context(), id, caller.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "rating not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserRatings(w http.ResponseWriter, r *http.Request) {
	caller, _ := identityFrom(r.Context())
	ratings, err := s.ratings.ListByUser(r.Context(), caller.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if ratings == nil {
		ratings = []models.MovieRating{}
	}
	writeJSON(w, http.StatusOK, ratingsResponse{Ratings: ratings})
}
