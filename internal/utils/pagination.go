package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// NewPaginationParams builds params for the given page and limit, applying
// defaults to zero values and capping the limit.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// GetPaginationParams extracts and validates pagination parameters from the request.
// Missing values default to page 1 and limit 10; values below 1 are rejected.
func GetPaginationParams(c *gin.Context) (PaginationParams, error) {
	page, err := positiveQueryInt(c, "page", DefaultPage)
	if err != nil {
		return PaginationParams{}, err
	}
	limit, err := positiveQueryInt(c, "limit", DefaultPageSize)
	if err != nil {
		return PaginationParams{}, err
	}
	return NewPaginationParams(page, limit), nil
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit > 0 {
		pages++
	}
	return pages
}

func positiveQueryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: %s must be an integer >= 1", apierrors.ErrValidation, key)
	}
	return v, nil
}
