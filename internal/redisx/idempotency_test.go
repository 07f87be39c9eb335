package redisx

import (
	"context"
	"strings"
	"testing"
	"time"

	"merchant-desk/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*miniredis.Miniredis, *IdempotencyStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewIdempotencyStore(client, time.Hour)
}

func TestIdempotencyStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	mr, store := newStore(t)
	key := SelectionSubmitKey("abc-123")

	state, _, err := store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, Reserved, state)
	assert.Equal(t, time.Hour, mr.TTL(key))

	state, _, err = store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, InFlight, state)

	selectionID := uuid.New()
	require.NoError(t, store.Complete(ctx, key, selectionID))

	state, got, err := store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, Completed, state)
	assert.Equal(t, selectionID, got)
}

func TestIdempotencyStore_ReleaseAllowsRetry(t *testing.T) {
	ctx := context.Background()
	_, store := newStore(t)
	key := SelectionSubmitKey("retry")

	_, _, err := store.Reserve(ctx, key)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, key))

	state, _, err := store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, Reserved, state)
}

func TestIdempotencyStore_ExpiredKeyIsReservable(t *testing.T) {
	ctx := context.Background()
	mr, store := newStore(t)
	key := SelectionSubmitKey("old")

	require.NoError(t, store.Complete(ctx, key, uuid.New()))
	mr.FastForward(2 * time.Hour)

	state, _, err := store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, Reserved, state)
}

func TestIdempotencyStore_CorruptValue(t *testing.T) {
	mr, store := newStore(t)
	key := SelectionSubmitKey("junk")
	require.NoError(t, mr.Set(key, "not-a-uuid"))

	_, _, err := store.Reserve(context.Background(), key)
	assert.Error(t, err)
}

func TestSelectionSubmitKey(t *testing.T) {
	assert.Equal(t, "idem:selection:submit:k1", SelectionSubmitKey("k1"))
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, _ := strings.Cut(mr.Addr(), ":")

	client, err := New(context.Background(), config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = New(context.Background(), config.RedisConfig{Host: host, Port: port})
	assert.Error(t, err)
}
