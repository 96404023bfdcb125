package cache

import (
	"context"
	"time"
)

// LayeredCache fronts a RedisCache with a small per-process MemoryCache.
// Writes go to Redis first; reads fill the memory layer on a Redis hit.
// Locks and existence checks always consult Redis so that every process
// sees the same answer.
type LayeredCache struct {
	local  *MemoryCache
	shared *RedisCache
	// localTTL caps how long the memory layer may serve an entry.
	localTTL time.Duration
}

func NewLayeredCache(shared *RedisCache, local MemoryConfig, localTTL time.Duration) *LayeredCache {
	if localTTL <= 0 {
		localTTL = 5 * time.Minute
	}
	return &LayeredCache{
		local:    NewMemoryCache(local),
		shared:   shared,
		localTTL: localTTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if err := lc.shared.Set(ctx, key, data, expiration); err != nil {
		return err
	}
	ttl := lc.localTTL
	if expiration > 0 && expiration < ttl {
		ttl = expiration
	}
	return lc.local.Set(ctx, key, data, ttl)
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest any) error {
	if lc.local.Get(ctx, key, dest) == nil {
		return nil
	}
	var data []byte
	if err := lc.shared.Get(ctx, key, &data); err != nil {
		return err
	}
	_ = lc.local.Set(ctx, key, data, lc.localTTL)
	return decode(data, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.local.Delete(ctx, keys...)
	return lc.shared.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	return lc.shared.Exists(ctx, keys...)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.shared.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.shared.Unlock(ctx, key)
}

func (lc *LayeredCache) Health(ctx context.Context) error {
	return lc.shared.Health(ctx)
}

func (lc *LayeredCache) Close() error {
	_ = lc.local.Close()
	return lc.shared.Close()
}
