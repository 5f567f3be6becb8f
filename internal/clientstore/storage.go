// Package clientstore holds small pieces of storefront state that must survive restarts:
// the cart, the session heuristic and first-visit markers.
package clientstore

import (
	"context"
	"errors"
	"sync"
)

// Well-known keys.
const (
	KeyCart        = "cart"
	KeyAuthSession = "auth_session"
	KeyHasVisited  = "has_visited"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("clientstore: key not found")

// Storage is a durable key/value store of opaque blobs scoped to one device.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Memory is a process-local Storage used in tests and as a fallback.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
