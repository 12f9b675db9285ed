package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"

	"github.com/go-chi/chi/v5"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Message: details})
}

// mapError maps domain errors to HTTP status codes.
func mapError(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers a failed ledger call. Storage failures are logged
// and reported without internal detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := mapError(err)
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).
			OperationFailed(r.Context(), message, err, r.Method, applog.LogFields{applog.FieldPath: r.URL.Path})
		writeError(w, status, message, "internal error")
		return
	}
	writeError(w, status, message, err.Error())
}

// parseID reads the {id} route parameter.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

// sanitizeInput removes control characters except tab/newline and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
