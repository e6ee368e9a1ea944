package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/taskdesk/internal/domain"
)

// errorResponse is the JSON envelope for every failed request.
type errorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Status  int                 `json:"status"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

// publicError overrides the client-facing message of err.
type publicError struct {
	message string
	err     error
}

func (e *publicError) Error() string { return e.message + ": " + e.err.Error() }
func (e *publicError) Unwrap() error { return e.err }

func withMessage(err error, message string) error {
	return &publicError{message: message, err: err}
}

var errInvalidBody = withMessage(domain.ErrInvalidInput, "Invalid request body")

// respondError maps err onto a status code and writes the error envelope.
// Unclassified errors are logged and reported as a bare 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)

	var pe *publicError
	if errors.As(err, &pe) {
		message = pe.message
	}

	resp := errorResponse{Message: message, Status: status}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Errors = ve.Fields
	}

	if status == http.StatusInternalServerError {
		slog.Error("unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, resp)
}

func classify(err error) (int, string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusBadRequest, "Email already in use"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid input"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Not authorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests, please try again later"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}
