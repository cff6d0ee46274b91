package models

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var slugStrip = regexp.MustCompile(`[^0-9a-zA-Z\-_ ]`)

// Movie is a catalog entry together with its derived rating context.
type Movie struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	YearOfRelease int       `json:"yearOfRelease"`
	Genres        []string  `json:"genres"`

	// Populated on read, never written by the movie store
	Rating     *float64 `json:"rating,omitempty"`     // Average of all ratings, one decimal
	UserRating *int     `json:"userRating,omitempty"` // Requesting user's own rating
}

// Slug returns the URL-safe lookup key derived from title and release year.
func (m Movie) Slug() string {
	return Slugify(m.Title, m.YearOfRelease)
}

// Slugify derives a slug: "Nick The Greek", 2023 => nick-the-greek-2023.
func Slugify(title string, yearOfRelease int) string {
	slugged := strings.ToLower(slugStrip.ReplaceAllString(title, ""))
	slugged = strings.ReplaceAll(slugged, " ", "-")
	return slugged + "-" + strconv.Itoa(yearOfRelease)
}

// MovieRating is a single rating made by a user, joined with the movie slug.
type MovieRating struct {
	MovieID uuid.UUID `json:"movieId" db:"movieid"`
	Slug    string    `json:"slug" db:"slug"`
	Rating  int       `json:"rating" db:"rating"`
}
