package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stylo-app/stylo/application/service"
	"github.com/stylo-app/stylo/infrastructure/provider"
	"github.com/stylo-app/stylo/internal/database"
)

// ErrUnauthenticated marks requests without a valid bearer token.
var ErrUnauthenticated = errors.New("authentication required")

// RateLimitError is returned when a per-IP budget is exhausted.
type RateLimitError struct {
	retryAfter int
}

// NewRateLimitError creates a RateLimitError with a Retry-After hint in
// seconds.
func NewRateLimitError(retryAfterSeconds int) *RateLimitError {
	return &RateLimitError{retryAfter: retryAfterSeconds}
}

// Error implements the error interface.
func (e *RateLimitError) Error() string { return "rate limit exceeded" }

// RetryAfter returns the suggested wait in seconds.
func (e *RateLimitError) RetryAfter() int { return e.retryAfter }

// ErrorResponse is the JSON error envelope every handler emits.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error status, title, and detail.
type ErrorBody struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps an error to an HTTP status and writes the error
// envelope. Unknown errors become a generic 500 with the detail kept
// out of the response body.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	title := "Internal Server Error"
	detail := ""

	var rateErr *RateLimitError
	var providerErr *provider.ProviderError

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
		title = "Invalid Input"
		detail = err.Error()
	case errors.Is(err, ErrUnauthenticated):
		status = http.StatusUnauthorized
		title = "Authentication Failed"
		detail = err.Error()
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
		title = "Not Found"
		detail = err.Error()
	case errors.As(err, &rateErr):
		status = http.StatusTooManyRequests
		title = "Rate Limit Exceeded"
		if rateErr.RetryAfter() > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(rateErr.RetryAfter()))
		}
	case errors.As(err, &providerErr):
		status = http.StatusBadGateway
		title = "External Service Failure"
	case errors.Is(err, service.ErrClientClosed):
		status = http.StatusServiceUnavailable
		title = "Service Unavailable"
	}

	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	WriteJSON(w, status, ErrorResponse{Error: ErrorBody{
		Status: status,
		Title:  title,
		Detail: detail,
	}})
}
