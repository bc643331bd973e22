package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mtlprog/slaola/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	// Not found
	case errors.Is(err, domain.ErrIssueNotFound):
		return http.StatusNotFound, "ISSUE_NOT_FOUND", message
	case errors.Is(err, domain.ErrPolicyNotFound):
		return http.StatusNotFound, "POLICY_NOT_FOUND", message

	// Conflicts
	case errors.Is(err, domain.ErrLimitsAlreadySet):
		return http.StatusConflict, "LIMITS_ALREADY_SET", message
	case errors.Is(err, domain.ErrDuplicatePolicy):
		return http.StatusConflict, "DUPLICATE_POLICY", message

	// Client errors
	case errors.Is(err, domain.ErrClientNotFound):
		return http.StatusUnauthorized, "INVALID_TOKEN", message
	case errors.Is(err, domain.ErrClientInactive):
		return http.StatusUnauthorized, "CLIENT_INACTIVE", message
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN", message

	// Validation errors
	case errors.Is(err, domain.ErrInvalidCalendar),
		errors.Is(err, domain.ErrInvalidTimeOfDay),
		errors.Is(err, domain.ErrInvalidWeekday):
		return http.StatusUnprocessableEntity, "INVALID_CALENDAR", message
	case errors.Is(err, domain.ErrNegativeDuration),
		errors.Is(err, domain.ErrDurationTooLong),
		errors.Is(err, domain.ErrDurationTooPrecise):
		return http.StatusUnprocessableEntity, "INVALID_DURATION", message
	case errors.Is(err, domain.ErrNoProducts),
		errors.Is(err, domain.ErrProjectRequired),
		errors.Is(err, domain.ErrInvalidSortField):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
