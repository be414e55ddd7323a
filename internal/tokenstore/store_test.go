package tokenstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/journey/internal/config"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")

	got, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, m.Set(ctx, "abc"))
	got, _ = m.Get(ctx)
	assert.Equal(t, "abc", got)

	require.NoError(t, m.Clear(ctx))
	got, _ = m.Get(ctx)
	assert.Empty(t, got)
}

func TestOpen_SelectsBackend(t *testing.T) {
	s, err := Open(config.TokenStore{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(config.TokenStore{Backend: "FILE", Path: "/tmp/x.toml"})
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	s, err = Open(config.TokenStore{Backend: "redis", RedisAddr: "127.0.0.1:1"})
	require.NoError(t, err)
	r, ok := s.(*Redis)
	require.True(t, ok)
	assert.Equal(t, "journey:authToken", r.key)
	_ = r.Close()

	_, err = Open(config.TokenStore{Backend: "keychain"})
	assert.ErrorContains(t, err, "unknown token store backend")
}

func TestRedis_UnreachableServerReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	store := NewRedis(client, "")
	t.Cleanup(func() { _ = store.Close() })

	_, err := store.Get(context.Background())
	assert.ErrorContains(t, err, "read token from redis")
}

// Runs against a live server when JOURNEY_TEST_REDIS_ADDR is set.
func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("JOURNEY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("JOURNEY_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	store := NewRedis(redis.NewClient(&redis.Options{Addr: addr}), "journey-test:")
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Clear(ctx))
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Set(ctx, "abc"))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
	require.NoError(t, store.Clear(ctx))
}
