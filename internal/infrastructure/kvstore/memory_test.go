package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetAbsentKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	value, ok, err := store.Get(ctx, "missing")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestMemoryStore_SetGetRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "products", `[{"id":"p1"}]`))

	value, ok, err := store.Get(ctx, "products")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"p1"}]`, value)
}

func TestMemoryStore_SetOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key", "old"))
	require.NoError(t, store.Set(ctx, "key", "new"))

	value, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new", value)
}

func TestMemoryStore_Remove(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key", "value"))
	require.NoError(t, store.Remove(ctx, "key"))

	_, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_RemoveAbsentKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.NoError(t, store.Remove(ctx, "missing"))
}
