package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"social-house-backend/internal/middleware"
	"social-house-backend/internal/services"

	"github.com/rs/zerolog/log"
)

const maxJSONBody = 1 << 20

// Options holds behaviour shared by all handlers
type Options struct {
	// Debug exposes internal error messages in 500 responses
	Debug bool
	// MaxUploadBytes bounds multipart upload bodies
	MaxUploadBytes int64
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges a mutation
type SuccessResponse struct {
	Success bool `json:"success"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// respondServiceError maps service errors to HTTP statuses. Unexpected errors
// are logged with msg and reported as 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, opts Options, msg string) {
	var (
		verr *services.ValidationError
		cerr *services.ConflictError
	)

	switch {
	case errors.As(err, &verr):
		respondError(w, verr.Message, http.StatusBadRequest)
	case errors.Is(err, services.ErrValidation):
		respondError(w, "Invalid input", http.StatusBadRequest)
	case errors.Is(err, services.ErrUnauthorized):
		respondError(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, services.ErrNotFound):
		respondError(w, "Not found", http.StatusNotFound)
	case errors.As(err, &cerr):
		respondError(w, cerr.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrConflict):
		respondError(w, "Already exists", http.StatusConflict)
	case errors.Is(err, services.ErrInvalidOperation):
		respondError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.Error().
			Err(err).
			Str("user_id", middleware.GetUserID(r.Context())).
			Str("path", r.URL.Path).
			Msg(msg)

		message := "Internal server error"
		if opts.Debug {
			message = err.Error()
		}
		respondError(w, message, http.StatusInternalServerError)
	}
}
