package syncapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type pushResponse struct {
	Success     bool     `json:"success"`
	SyncedCount int      `json:"syncedCount"`
	SyncedIDs   []string `json:"syncedIds"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Success: false, Error: err.Error()})
}
