package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"contabile/internal/auth"
	"contabile/internal/core"
)

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors to HTTP statuses. Anything unmapped is a
// 500 with a generic body so internals never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: err.Error()})
	case errors.Is(err, core.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Message: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: err.Error()})
	case errors.Is(err, core.ErrEmailTaken),
		errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, errBadJSON),
		core.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Unhandled error",
			"request_id", requestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal server error"})
	}
}
