// Package localstore is the device's authoritative copy of business records.
//
// A Store persists opaque values by key. Collection layers a typed, JSON
// encoded list of records on top of one key and serializes read-modify-write
// cycles on it.
package localstore

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("local store closed")

// Store persists one value per key. Load returns nil when nothing is stored.
// Save replaces the value and is durable when it returns.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Close() error
}

// Memory is a Store that lives only as long as the process.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}

	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (m *Memory) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v

	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}
