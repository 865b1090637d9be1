package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte(`{"a":1}`)))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), value)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "k", []byte("abc")))

	value, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	value[0] = 'x'

	again, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryStore_SelfNotifyExactlyOncePerWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var keys []string
	cancel := store.Subscribe(func(key string) {
		keys = append(keys, key)
	})
	defer cancel()

	require.NoError(t, store.Set(ctx, "a", []byte("1")))
	require.NoError(t, store.Set(ctx, "b", []byte("2")))
	require.NoError(t, store.Set(ctx, "a", []byte("3")))

	assert.Equal(t, []string{"a", "b", "a"}, keys)
}

func TestMemoryStore_SubscribeCancel(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	calls := 0
	cancel := store.Subscribe(func(string) { calls++ })

	require.NoError(t, store.Set(ctx, "k", []byte("1")))
	cancel()
	require.NoError(t, store.Set(ctx, "k", []byte("2")))

	assert.Equal(t, 1, calls)
}

func TestMemoryStore_AllSubscribersNotified(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var first, second []string
	defer store.Subscribe(func(key string) { first = append(first, key) })()
	defer store.Subscribe(func(key string) { second = append(second, key) })()

	require.NoError(t, store.Set(ctx, "k", []byte("1")))

	assert.Equal(t, []string{"k"}, first)
	assert.Equal(t, []string{"k"}, second)
}
