package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

type pushResponse struct {
	Success     bool     `json:"success"`
	SyncedCount int      `json:"syncedCount"`
	SyncedIDs   []string `json:"syncedIds"`
	Error       string   `json:"error"`
}

// Endpoint is the remote store for one entity, served under /api/sync/<key>.
type Endpoint[T any] struct {
	client *Client
	entity record.Entity
}

func NewEndpoint[T any](client *Client, entity record.Entity) *Endpoint[T] {
	return &Endpoint[T]{client: client, entity: entity}
}

func (e *Endpoint[T]) path() string { return "/api/sync/" + e.entity.String() }

// Push upserts batch and returns the ids the store confirmed.
func (e *Endpoint[T]) Push(ctx context.Context, batch []T) ([]string, error) {
	in := map[string][]T{e.entity.String(): batch}

	var out pushResponse
	if err := e.client.do(ctx, http.MethodPost, e.path(), in, &out); err != nil {
		return nil, err
	}

	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrRejected, out.Error)
	}

	return out.SyncedIDs, nil
}

// Pull returns the store's current view of the entity.
func (e *Endpoint[T]) Pull(ctx context.Context) ([]T, error) {
	var out map[string]json.RawMessage
	if err := e.client.do(ctx, http.MethodGet, e.path(), nil, &out); err != nil {
		return nil, err
	}

	var success bool
	if err := json.Unmarshal(out["success"], &success); err != nil || !success {
		return nil, fmt.Errorf("%w: %s pull not successful", ErrRejected, e.entity)
	}

	raw, ok := out[e.entity.String()]
	if !ok {
		return nil, fmt.Errorf("%w: response has no %q field", ErrRejected, e.entity)
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrRejected, e.entity, err)
	}

	if records == nil {
		records = []T{}
	}

	return records, nil
}
