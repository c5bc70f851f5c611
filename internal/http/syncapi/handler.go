// Package syncapi serves the batch upsert and pull endpoints of one entity.
package syncapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tillsync/internal/http/auth"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
	"github.com/MrJamesThe3rd/tillsync/internal/remote"
)

const maxBodyBytes = 16 << 20

type Handler[T any] struct {
	ep remote.Endpoint[T]
}

func NewHandler[T any](ep remote.Endpoint[T]) *Handler[T] {
	return &Handler[T]{ep: ep}
}

func (h *Handler[T]) Entity() record.Entity { return h.ep.Entity }

func (h *Handler[T]) Routes(r chi.Router) {
	r.Post("/", h.push)
	r.Get("/", h.pull)
}

func (h *Handler[T]) push(w http.ResponseWriter, r *http.Request) {
	key := h.ep.Entity.String()

	var body map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding body: %w", err))
		return
	}

	raw, ok := body[key]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("body has no %q field", key))
		return
	}

	var batch []T
	if err := json.Unmarshal(raw, &batch); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding %s: %w", key, err))
		return
	}

	res, err := h.ep.Push(r.Context(), batch)
	if err != nil {
		if errors.Is(err, remote.ErrEmptyBatch) || errors.Is(err, remote.ErrInvalidBatch) {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		slog.Error("failed to upsert batch", "entity", key, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to store records"))

		return
	}

	device, _ := auth.DeviceID(r.Context())
	slog.Info("batch stored", "entity", key, "count", res.SyncedCount, "device", device)

	writeJSON(w, http.StatusOK, pushResponse{
		Success:     true,
		SyncedCount: res.SyncedCount,
		SyncedIDs:   res.SyncedIDs,
	})
}

func (h *Handler[T]) pull(w http.ResponseWriter, r *http.Request) {
	records, err := h.ep.Pull(r.Context())
	if err != nil {
		slog.Error("failed to list records", "entity", h.ep.Entity, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to list records"))

		return
	}

	if records == nil {
		records = []T{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		h.ep.Entity.String(): records,
	})
}
