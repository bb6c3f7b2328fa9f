package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveClient connects to REDIS_TEST_ADDR, skipping when it is unset.
func liveClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func unreachableClient(t *testing.T) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestTokenBlacklist_ExpiredTokenIsNotStored(t *testing.T) {
	b := NewTokenBlacklist(unreachableClient(t))
	assert.NoError(t, b.Revoke(context.Background(), "token", 0))
	assert.NoError(t, b.Revoke(context.Background(), "token", -time.Minute))
}

func TestTokenBlacklist_Unreachable(t *testing.T) {
	b := NewTokenBlacklist(unreachableClient(t))

	assert.Error(t, b.Revoke(context.Background(), "token", time.Minute))
	revoked, err := b.IsRevoked(context.Background(), "token")
	assert.Error(t, err)
	assert.False(t, revoked)
}

func TestCartStorage_Unreachable(t *testing.T) {
	s := NewCartStorage(unreachableClient(t))

	_, err := s.Get("cart_1")
	assert.Error(t, err)
	assert.Error(t, s.Set("cart_1", []byte("[]")))
}

func TestTokenBlacklist_Live(t *testing.T) {
	b := NewTokenBlacklist(liveClient(t))
	ctx := context.Background()
	token := uuid.NewString()

	revoked, err := b.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, b.Revoke(ctx, token, time.Minute))
	revoked, err = b.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestCartStorage_Live(t *testing.T) {
	s := NewCartStorage(liveClient(t))
	key := "cart_test_" + uuid.NewString()

	data, err := s.Get(key)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Set(key, []byte(`[{"productId":"P1","quantity":2}]`)))
	data, err = s.Get(key)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"P1","quantity":2}]`, string(data))
}
