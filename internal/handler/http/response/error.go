package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, analytics.ErrMissingToken):
		Unauthorized(w, "Missing token")
	case errors.Is(err, analytics.ErrInvalidToken):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, analytics.ErrInsufficientRole):
		Forbidden(w, "Insufficient role")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
