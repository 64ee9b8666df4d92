package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ampsched/internal/engine"
	"ampsched/internal/model"
	"ampsched/internal/store"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeEngineError maps engine errors onto HTTP status codes. A conflict
// carries the colliding occurrence so the client can show it.
func writeEngineError(w http.ResponseWriter, err error) {
	var ce *engine.ConflictError
	switch {
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    err.Error(),
			"conflict": ce.With,
		})
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "schedule not found")
	case errors.Is(err, engine.ErrNoOccurrences):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrInvalidSchedule):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "schedule store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
