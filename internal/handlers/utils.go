package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/eventzen/apiserver/internal/services"
	"github.com/eventzen/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// APIError is the uniform error payload.
type APIError struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// callerID returns the authenticated user's id, or "" for anonymous callers.
func callerID(ctx context.Context) string {
	subject, _ := ctx.Value(contextSubjectKey).(string)
	return strings.TrimSpace(subject)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIError{StatusCode: status, Message: message})
}

// writeServiceError maps service outcomes to status codes. Anything outside
// the expected set is a storage failure: logged with detail, surfaced as 500
// without it.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, resource string) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, APIError{
			StatusCode: http.StatusBadRequest,
			Message:    "invalid request data",
			Fields:     validationErr.Fields,
		})
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid user")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, resource+" was modified concurrently")
	default:
		logger.Error("request failed", "resource", resource, "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
	}
}

func parseID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid " + param)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}
