package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
)

const DateLayout = "2006-01-02"

// DateRange bounds a query on a date column. Either side may be open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns the UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid date", apierrors.ErrValidation, s)
	}
	return TruncateDay(t), nil
}

// TruncateDay returns midnight UTC of the day t falls on.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last millisecond of the UTC day t falls on.
func EndOfDay(t time.Time) time.Time {
	return TruncateDay(t).Add(24*time.Hour - time.Millisecond)
}

// Today returns the current UTC calendar day.
func Today() time.Time {
	return TruncateDay(time.Now())
}

// MonthRange returns [first day 00:00:00, last day 23:59:59.999] of the month.
func MonthRange(year int, month time.Month) DateRange {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Millisecond)
	return DateRange{From: &from, To: &to}
}

// ParseDateRange reads the startDate and endDate query parameters. The end
// bound covers the whole end day.
func ParseDateRange(c *gin.Context) (DateRange, error) {
	var r DateRange
	if s := c.Query("startDate"); s != "" {
		from, err := ParseDate(s)
		if err != nil {
			return r, err
		}
		r.From = &from
	}
	if s := c.Query("endDate"); s != "" {
		to, err := ParseDate(s)
		if err != nil {
			return r, err
		}
		to = EndOfDay(to)
		r.To = &to
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return r, fmt.Errorf("%w: endDate must not be before startDate", apierrors.ErrValidation)
	}
	return r, nil
}

// OptionalUint parses an optional unsigned id query parameter.
func OptionalUint(c *gin.Context, key string) (*uint64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, fmt.Errorf("%w: %s must be a positive integer", apierrors.ErrValidation, key)
	}
	return &v, nil
}

// OptionalBool parses an optional boolean query parameter.
func OptionalBool(c *gin.Context, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", apierrors.ErrValidation, key)
	}
	return &v, nil
}

// PathID parses the :id path parameter.
func PathID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", apierrors.ErrValidation, c.Param("id"))
	}
	return id, nil
}
