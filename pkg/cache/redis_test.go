package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRedis(t *testing.T) (*RedisCache, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return NewRedisCacheWithClient(client, "macrolens"), mock
}

func TestRedisCacheSetGet(t *testing.T) {
	ctx := context.Background()
	rc, mock := newMockRedis(t)

	mock.ExpectSet("macrolens:k", []byte(`{"name":"GLD","value":2}`), time.Hour).SetVal("OK")
	mock.ExpectGet("macrolens:k").SetVal(`{"name":"GLD","value":2}`)
	mock.ExpectGet("macrolens:gone").RedisNil()
	mock.ExpectGet("macrolens:broken").SetErr(errors.New("connection refused"))

	require.NoError(t, rc.Set(ctx, "k", entry{Name: "GLD", Value: 2}, time.Hour))

	var got entry
	require.NoError(t, rc.Get(ctx, "k", &got))
	assert.Equal(t, entry{Name: "GLD", Value: 2}, got)

	assert.ErrorIs(t, rc.Get(ctx, "gone", &got), ErrCacheMiss)
	assert.EqualError(t, rc.Get(ctx, "broken", &got), "connection refused")
}

func TestRedisCacheLockAndKeys(t *testing.T) {
	ctx := context.Background()
	rc, mock := newMockRedis(t)

	mock.ExpectSetNX("macrolens:lock:warmup", "locked", time.Minute).SetVal(true)
	mock.ExpectDel("macrolens:lock:warmup").SetVal(1)
	mock.ExpectExists("macrolens:a", "macrolens:b").SetVal(1)
	mock.ExpectUnlink("macrolens:a", "macrolens:b").SetVal(2)
	mock.ExpectPing().SetVal("PONG")

	ok, err := rc.TryLock(ctx, "lock:warmup", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, rc.Unlock(ctx, "lock:warmup"))

	exists, err := rc.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, rc.Delete(ctx, "a", "b"))
	require.NoError(t, rc.Delete(ctx))

	assert.NoError(t, rc.Health(ctx))
}

func TestLayeredCacheReadsThroughOnce(t *testing.T) {
	ctx := context.Background()
	rc, mock := newMockRedis(t)
	lc := NewLayeredCache(rc, MemoryConfig{MaxSize: 8}, time.Minute)
	t.Cleanup(func() { _ = lc.local.Close() })

	mock.ExpectGet("macrolens:k").SetVal(`{"name":"TLT","value":3}`)

	var got entry
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, "TLT", got.Name)

	// second read is served by L1
	got = entry{}
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, "TLT", got.Name)
}

func TestLayeredCacheWriteThrough(t *testing.T) {
	ctx := context.Background()
	rc, mock := newMockRedis(t)
	lc := NewLayeredCache(rc, MemoryConfig{MaxSize: 8}, time.Minute)
	t.Cleanup(func() { _ = lc.local.Close() })

	mock.ExpectSet("macrolens:k", []byte(`"v"`), 30*time.Second).SetVal("OK")
	require.NoError(t, lc.Set(ctx, "k", []byte(`"v"`), 30*time.Second))

	var s string
	require.NoError(t, lc.Get(ctx, "k", &s))
	assert.Equal(t, `"v"`, s)
}
