package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RespondJSON writes payload as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// RespondError writes a standardized error response to the HTTP response writer
func RespondError(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// RespondValidationError writes a validation error response with field information
func RespondValidationError(w http.ResponseWriter, code, message, field string) {
	RespondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   code,
		Message: message,
		Field:   field,
	})
}

// RespondInternalError writes an internal server error response
func RespondInternalError(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// RespondNotFound writes a not found error response
func RespondNotFound(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusNotFound, code, message)
}

// RespondUnauthorized writes an unauthorized error response
func RespondUnauthorized(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusUnauthorized, code, message)
}

// RespondBadRequest writes a bad request error response
func RespondBadRequest(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusBadRequest, code, message)
}

// RespondServiceUnavailable writes a service unavailable error response
func RespondServiceUnavailable(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusServiceUnavailable, code, message)
}

// RespondDomainError maps the domain error taxonomy onto HTTP statuses.
// Unclassified errors are logged and reported as an opaque 500.
func RespondDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		RespondValidationError(w, ErrCodeValidationFailed, ve.Error(), ve.Field)
	case errors.Is(err, domain.ErrNotFound):
		RespondNotFound(w, ErrCodeNotFound, "Resource not found")
	case errors.Is(err, domain.ErrConflict):
		RespondError(w, http.StatusConflict, ErrCodeAlreadyExists, "Username or email already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		RespondUnauthorized(w, ErrCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, domain.ErrUnauthorized):
		RespondUnauthorized(w, ErrCodeUnauthorized, "Authentication required")
	default:
		logger.Error().Err(err).Msg("request failed")
		RespondInternalError(w, "Internal server error")
	}
}

// RespondErrorWithDetails writes an error response with additional details
func RespondErrorWithDetails(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	RespondJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}
