package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"fibertrack/infrastructure/apperr"
)

// JSON writes v as a JSON body with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", slog.Any("err", err))
	}
}

// Error maps err to its HTTP status and writes a JSON error body.
// Internal errors are logged and surfaced with a generic detail.
func Error(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("internal error", slog.Any("err", err))
		detail = "an internal server error occurred"
	}
	JSON(w, status, map[string]string{"detail": detail})
}

// DecodeJSON parses the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.InvalidState("invalid JSON body")
	}
	return nil
}
