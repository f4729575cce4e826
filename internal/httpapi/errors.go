package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"findd/internal/engine"
	"findd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// engineErrorStatus maps lifecycle errors to HTTP status codes and a short
// reason label for metrics.
func engineErrorStatus(err error) (int, string) {
	var he HTTPError
	switch {
	case engine.IsCLINotFound(err):
		return http.StatusServiceUnavailable, "cli_not_found"
	case engine.IsEngineNotFound(err):
		return http.StatusServiceUnavailable, "engine_not_found"
	case engine.IsAutostartBlocked(err):
		return http.StatusConflict, "autostart_blocked"
	case engine.IsStopFailed(err):
		return http.StatusConflict, "stop_failed"
	case engine.IsNotReady(err):
		return http.StatusServiceUnavailable, "not_ready"
	case errors.As(err, &he):
		return he.StatusCode(), "service"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeServiceError maps err with engineErrorStatus and counts it.
func writeServiceError(w http.ResponseWriter, err error) int {
	status, reason := engineErrorStatus(err)
	IncrementServiceError(reason)
	writeJSONError(w, status, err.Error())
	return status
}
