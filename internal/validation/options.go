package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"moviesapi/internal/models"
)

const sortFieldMessage = "You can only sort by 'title' or 'yearofrelease'."

// OptionsValidator checks list query options.
type OptionsValidator struct {
	validate    *validator.Validate
	minPageSize int
	maxPageSize int
	now         func() time.Time
}

// NewOptionsValidator builds a validator accepting page sizes in the
// inclusive range [minPageSize, maxPageSize].
func NewOptionsValidator(minPageSize, maxPageSize int) *OptionsValidator {
	return &OptionsValidator{
		validate:    validator.New(),
		minPageSize: minPageSize,
		maxPageSize: maxPageSize,
		now:         time.Now,
	}
}

// Validate reports every violation in opts as an *Error.
func (v *OptionsValidator) Validate(ctx context.Context, opts models.GetAllMoviesOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c := newCollector(v.validate)

	if opts.YearOfRelease != nil {
		c.check("yearOfRelease", *opts.YearOfRelease, fmt.Sprintf("lte=%d", v.now().UTC().Year()))
	}
	if opts.SortField != "" && v.validate.Var(opts.SortField, "oneof=title yearofrelease") != nil {
		c.add("sortField", sortFieldMessage)
	}
	c.check("page", opts.Page, "gte=1")
	c.check("pageSize", opts.PageSize, fmt.Sprintf("gte=%d,lte=%d", v.minPageSize, v.maxPageSize))

	return c.err()
}
