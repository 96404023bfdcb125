package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/creasty/defaults"
)

// MemoryConfig sizes an in-process cache.
type MemoryConfig struct {
	MaxSize         int           `default:"1000"`
	CleanupInterval time.Duration `default:"5m"`
	// DefaultTTL applies when Set is called without an expiration.
	DefaultTTL time.Duration `default:"168h"`
}

type memoryEntry struct {
	key      string
	data     []byte
	expireAt time.Time
}

// MemoryCache is a bounded LRU map. Expired entries are dropped on access and
// by a background sweep.
type MemoryCache struct {
	mu      sync.Mutex
	cfg     MemoryConfig
	order   *list.List
	entries map[string]*list.Element
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemoryCache(cfg MemoryConfig) *MemoryCache {
	_ = defaults.Set(&cfg)
	mc := &MemoryCache{
		cfg:     cfg,
		order:   list.New(),
		entries: make(map[string]*list.Element, cfg.MaxSize),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go mc.sweepLoop()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	mc.mu.Lock()
	mc.put(key, data, expiration)
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest any) error {
	mc.mu.Lock()
	e := mc.lookup(key)
	if e == nil {
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	data := e.data
	mc.mu.Unlock()
	return decode(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		if el, ok := mc.entries[k]; ok {
			mc.remove(el)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		if mc.lookup(k) != nil {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.lookup(key) != nil {
		return false, nil
	}
	mc.put(key, []byte("locked"), ttl)
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Len counts stored entries, including expired ones not yet swept.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.order.Len()
}

func (mc *MemoryCache) Close() error {
	mc.stopOnce.Do(func() { close(mc.stop) })
	return nil
}

// put stores data as most recently used, evicting from the back when full.
// Callers hold mu.
func (mc *MemoryCache) put(key string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = mc.cfg.DefaultTTL
	}
	expireAt := mc.now().Add(ttl)
	if el, ok := mc.entries[key]; ok {
		e := el.Value.(*memoryEntry)
		e.data, e.expireAt = data, expireAt
		mc.order.MoveToFront(el)
		return
	}
	for mc.order.Len() >= mc.cfg.MaxSize && mc.order.Len() > 0 {
		mc.remove(mc.order.Back())
	}
	mc.entries[key] = mc.order.PushFront(&memoryEntry{key: key, data: data, expireAt: expireAt})
}

// lookup returns a live entry and marks it used. Callers hold mu.
func (mc *MemoryCache) lookup(key string) *memoryEntry {
	el, ok := mc.entries[key]
	if !ok {
		return nil
	}
	e := el.Value.(*memoryEntry)
	if mc.now().After(e.expireAt) {
		mc.remove(el)
		return nil
	}
	mc.order.MoveToFront(el)
	return e
}

func (mc *MemoryCache) remove(el *list.Element) {
	delete(mc.entries, el.Value.(*memoryEntry).key)
	mc.order.Remove(el)
}

func (mc *MemoryCache) sweepLoop() {
	t := time.NewTicker(mc.cfg.CleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case <-t.C:
			mc.sweep()
		}
	}
}

func (mc *MemoryCache) sweep() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	now := mc.now()
	for el := mc.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*memoryEntry).expireAt) {
			mc.remove(el)
		}
		el = prev
	}
}
