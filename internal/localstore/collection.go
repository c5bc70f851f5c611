package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoChange may be returned by an Update function to skip the write.
var ErrNoChange = errors.New("no change")

// Collection is the typed list of records stored under one key.
//
// All access goes through the collection's lock so business actions and the
// sync engine never interleave a read-modify-write on the same key. Share one
// Collection per key within a process.
type Collection[T any] struct {
	store  Store
	key    string
	logger *slog.Logger

	mu sync.Mutex
}

func NewCollection[T any](store Store, key string, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}

	return &Collection[T]{
		store:  store,
		key:    key,
		logger: logger.With("collection", key),
	}
}

func (c *Collection[T]) Key() string { return c.key }

// Load returns the stored records, or an empty list when nothing is stored.
// A payload that fails to decode is logged and treated as empty so one bad
// write cannot wedge every later sync cycle.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.load(ctx)
}

// Save replaces the stored records.
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.save(ctx, records)
}

// Update loads the records, applies fn and saves its result atomically with
// respect to other users of this collection. Nothing is written when fn
// returns an error; ErrNoChange is swallowed.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.load(ctx)
	if err != nil {
		return err
	}

	next, err := fn(current)
	if errors.Is(err, ErrNoChange) {
		return nil
	}

	if err != nil {
		return err
	}

	return c.save(ctx, next)
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	raw, err := c.store.Load(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", c.key, err)
	}

	if len(raw) == 0 {
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		c.logger.Error("discarding unreadable local records", "error", err, "bytes", len(raw))
		return []T{}, nil
	}

	if records == nil {
		records = []T{}
	}

	return records, nil
}

func (c *Collection[T]) save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", c.key, err)
	}

	if err := c.store.Save(ctx, c.key, raw); err != nil {
		return fmt.Errorf("saving %s: %w", c.key, err)
	}

	return nil
}
