package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

// WriteError reports a structured failure: kind tells the caller which class
// of error occurred, message says what happened.
func WriteError(w http.ResponseWriter, status int, kind string, msg string) {
	WriteJSON(w, status, map[string]any{
		"error":   kind,
		"message": msg,
	})
}
