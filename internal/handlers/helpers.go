package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/scope"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// bindJSON decodes and validates the request body. It writes the error
// response itself and reports whether the handler should continue.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.RespondWithError(c, http.StatusRequestEntityTooLarge,
				apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "request body too large"))
			return false
		}
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return false
	}
	return true
}

func currentViewer(c *gin.Context) (scope.Viewer, bool) {
	v, ok := middleware.GetViewer(c)
	if !ok {
		apierrors.Unauthorized(c, "")
	}
	return v, ok
}

func pathID(c *gin.Context) (uint64, bool) {
	id, err := utils.PathID(c)
	if err != nil {
		apierrors.Respond(c, err)
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (utils.PaginationParams, bool) {
	params, err := utils.GetPaginationParams(c)
	if err != nil {
		apierrors.Respond(c, err)
		return params, false
	}
	return params, true
}

// optionalDate parses a YYYY-MM-DD body or query value. Empty means unset.
func optionalDate(s *string, field string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(*s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD)", apierrors.ErrValidation, field)
	}
	return &t, nil
}

func requiredInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", apierrors.ErrValidation, key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", apierrors.ErrValidation, key)
	}
	return v, nil
}
