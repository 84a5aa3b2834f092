package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nftearth/fortune/internal/platform/resilience"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// TTL is a process-local expiring cache. A zero ttl means entries never
// expire. Loads for the same key are deduplicated.
type TTL[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
	flight  resilience.Flight[T]
	clock   func() time.Time
}

func NewTTL[T any](ttl time.Duration) *TTL[T] {
	return &TTL[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		clock:   time.Now,
	}
}

func (c *TTL[T]) Get(key string) (T, bool) {
	var zero T
	if key == "" {
		return zero, false
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if c.ttl > 0 && !e.expiresAt.After(c.clock()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

func (c *TTL[T]) Set(key string, value T) {
	if key == "" {
		return
	}
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.clock().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry[T]{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

func (c *TTL[T]) Delete(key string) {
	if key == "" {
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Invalidate drops every entry.
func (c *TTL[T]) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.mu.Unlock()
}

// GetOrLoad returns the cached value or runs loader once for the key,
// caching a successful result.
func (c *TTL[T]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (T, error)) (T, error) {
	var zero T
	if loader == nil {
		return zero, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.flight.Do(key, func() (T, error) {
		if cached, ok := c.Get(key); ok {
			return cached, nil
		}
		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return zero, loadErr
		}
		c.Set(key, loaded)
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}
	return v, nil
}
