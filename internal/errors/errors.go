package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeAccountDisabled = "ACCOUNT_DISABLED"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"

	// Business logic errors
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeBusinessRule      = "BUSINESS_RULE_VIOLATION"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Error kinds. Service errors wrap exactly one of these so that Respond can
// pick the HTTP status with errors.Is.
var (
	ErrValidation        = stderrors.New("validation error")
	ErrDuplicate         = stderrors.New("already exists")
	ErrNotFound          = stderrors.New("not found")
	ErrUnauthenticated   = stderrors.New("authentication required")
	ErrAccountDisabled   = stderrors.New("account is disabled")
	ErrForbidden         = stderrors.New("access denied")
	ErrInvalidTransition = stderrors.New("invalid status transition")
	ErrBusinessRule      = stderrors.New("business rule violation")
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// RespondWithError sends an error response and stops the handler chain.
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.AbortWithStatusJSON(statusCode, err)
}

// Respond maps a service error to its HTTP representation. Errors that do not
// wrap a known kind are recorded on the context for the access log and
// reported to the client as a generic 500.
func Respond(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, ErrValidation):
		RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, err.Error()))
	case stderrors.Is(err, ErrDuplicate):
		RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeAlreadyExists, err.Error()))
	case stderrors.Is(err, ErrInvalidTransition):
		RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidTransition, err.Error()))
	case stderrors.Is(err, ErrBusinessRule):
		RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeBusinessRule, err.Error()))
	case stderrors.Is(err, ErrAccountDisabled):
		RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeAccountDisabled, err.Error()))
	case stderrors.Is(err, ErrUnauthenticated):
		Unauthorized(c, err.Error())
	case stderrors.Is(err, ErrForbidden):
		Forbidden(c, err.Error())
	case stderrors.Is(err, ErrNotFound):
		NotFound(c, err.Error())
	default:
		_ = c.Error(err)
		InternalError(c, "")
	}
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(ErrCodeForbidden, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, message, details))
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "Too many requests"
	}
	RespondWithError(c, http.StatusTooManyRequests, NewAPIError(ErrCodeTooManyRequests, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RespondWithError(c, http.StatusServiceUnavailable, NewAPIError(ErrCodeServiceUnavailable, message))
}
