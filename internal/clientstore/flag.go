package clientstore

import (
	"context"
	"errors"
	"sync"
)

var flagOn = []byte("true")

// Flag is a persisted boolean. The value is read once by LoadFlag and cached;
// Get never touches storage.
type Flag struct {
	store Storage
	key   string

	mu  sync.RWMutex
	val bool
}

// LoadFlag reads key from store. A missing key is false; a read error is returned
// together with a usable false flag.
func LoadFlag(ctx context.Context, store Storage, key string) (*Flag, error) {
	f := &Flag{store: store, key: key}
	data, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return f, nil
	case err != nil:
		return f, err
	}
	f.val = string(data) == string(flagOn)
	return f, nil
}

func (f *Flag) Get() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.val
}

// Set updates the cached value and writes it through. The cached value changes even
// when the write fails.
func (f *Flag) Set(ctx context.Context, v bool) error {
	f.mu.Lock()
	f.val = v
	f.mu.Unlock()
	if v {
		return f.store.Set(ctx, f.key, flagOn)
	}
	return f.store.Delete(ctx, f.key)
}
