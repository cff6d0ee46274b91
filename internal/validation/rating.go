package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

var ratingValidate = validator.New()

// ValidateRating rejects unset values and values outside [MinRating, MaxRating].
func ValidateRating(rating int) error {
	c := newCollector(ratingValidate)
	c.check("rating", rating, fmt.Sprintf("gte=%d,lte=%d", MinRating, MaxRating))
	return c.err()
}
