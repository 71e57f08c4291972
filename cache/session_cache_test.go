package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, ttl), mr
}

func TestSessionLifecycle(t *testing.T) {
	store, mr := newSessionStore(t, time.Hour)
	ctx := context.Background()

	id, err := store.Create(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := mr.Get(SessionKey(id))
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
	assert.Equal(t, time.Hour, mr.TTL(SessionKey(id)))

	account, err := store.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", account)

	require.NoError(t, store.Destroy(ctx, id))
	account, err = store.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, account)

	// destroying twice is fine
	assert.NoError(t, store.Destroy(ctx, id))
}

func TestSessionExpires(t *testing.T) {
	store, mr := newSessionStore(t, time.Minute)
	ctx := context.Background()

	id, err := store.Create(ctx, "alice")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	account, err := store.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, account)
}

func TestSessionIDsAreDistinct(t *testing.T) {
	store, _ := newSessionStore(t, time.Hour)
	ctx := context.Background()

	a, err := store.Create(ctx, "alice")
	require.NoError(t, err)
	b, err := store.Create(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSessionLookupFailure(t *testing.T) {
	store, mr := newSessionStore(t, time.Hour)
	mr.Close()

	_, err := store.Lookup(context.Background(), "whatever")
	assert.Error(t, err)
}
