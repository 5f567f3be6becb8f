package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelshop/internal/clientstore"
)

func newMemStore() *clientstore.Memory { return clientstore.NewMemory() }

// countingStore records reads so tests can assert the heuristic does no I/O.
type countingStore struct {
	clientstore.Storage
	gets int
}

func (c *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets++
	return c.Storage.Get(ctx, key)
}

func TestFlag_NoIOAfterLoad(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Storage: newMemStore()}
	f := LoadFlag(ctx, store, nil)
	require.Equal(t, 1, store.gets)
	assert.False(t, f.MightHaveValidSession())

	f.MarkLoggedIn(ctx)
	assert.True(t, f.MightHaveValidSession())

	f.MarkLoggedOut(ctx)
	assert.False(t, f.MightHaveValidSession())

	for i := 0; i < 10; i++ {
		f.MightHaveValidSession()
	}
	assert.Equal(t, 1, store.gets)
}

func TestFlag_SurvivesRestartUntilLogout(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	LoadFlag(ctx, store, nil).MarkLoggedIn(ctx)
	again := LoadFlag(ctx, store, nil)
	assert.True(t, again.MightHaveValidSession())

	again.MarkLoggedOut(ctx)
	assert.False(t, LoadFlag(ctx, store, nil).MightHaveValidSession())
}
