package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/goalflow/internal/repository"
	"github.com/templui/goalflow/internal/service"
	"github.com/templui/goalflow/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps service errors to status codes. Unknown errors are logged
// and reported as 500 without their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, validation.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrGoalNotFound),
		errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrMilestoneNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrGoalVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrMissingIdentity),
		errors.Is(err, service.ErrInvalidSignature):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err != nil {
		return fmt.Errorf("%w: malformed request body: %w", validation.ErrInvalidInput, err)
	}
	return nil
}

// optionalDate parses a date field that may be omitted.
func optionalDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return service.ParseDate(value)
}
