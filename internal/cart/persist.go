package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"labelshop/internal/clientstore"
)

// Persister loads and saves cart lines.
type Persister interface {
	Load(ctx context.Context) ([]Line, error)
	Save(ctx context.Context, lines []Line) error
}

// StoragePersister keeps lines as a JSON array under one clientstore key.
type StoragePersister struct {
	store clientstore.Storage
	key   string
}

func NewStoragePersister(store clientstore.Storage, key string) *StoragePersister {
	if key == "" {
		key = clientstore.KeyCart
	}
	return &StoragePersister{store: store, key: key}
}

func (p *StoragePersister) Load(ctx context.Context) ([]Line, error) {
	data, err := p.store.Get(ctx, p.key)
	if errors.Is(err, clientstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("decode persisted cart: %w", err)
	}
	return lines, nil
}

func (p *StoragePersister) Save(ctx context.Context, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return p.store.Set(ctx, p.key, data)
}
