package query

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache is the single shared resource of the client core. It keys
// results by (resource, normalized filters), guarantees at most one
// in-flight fetch per key, and keeps the last successful value when a
// refetch fails. There is no TTL: every fetch revalidates, the cached
// value only serves as the fallback on failure.
//
// Responses arriving after their requester navigated away simply land
// in the cache as a fresh value; ordering across a mutation and a
// stale in-flight fetch is last-writer-wins.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
	subs    map[string][]chan struct{}
	group   singleflight.Group
	logger  *slog.Logger
}

func NewCache(logger *slog.Logger) *Cache {
	return &Cache{
		entries: make(map[string]any),
		subs:    make(map[string][]chan struct{}),
		logger:  logger,
	}
}

// resourceOf extracts the resource segment of a cache key.
func resourceOf(key string) string {
	if i := strings.IndexByte(key, '|'); i >= 0 {
		return key[:i]
	}
	return key
}

// Peek returns the cached value without fetching.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache) fetch(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	v, err, shared := c.group.Do(key, func() (any, error) {
		return fn(ctx)
	})
	if shared {
		c.logger.Debug("fetch attached to in-flight request", "key", key)
	}

	if err != nil {
		// A failed fetch never evicts the previous successful value.
		if prev, ok := c.Peek(key); ok {
			return prev, err
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
	c.notify(resourceOf(key))

	return v, nil
}

// Fetch revalidates key through fn, de-duplicating concurrent callers.
// On failure it returns the previous cached value (when one exists)
// together with the error, so views keep rendering stale-but-real data.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	v, err := c.fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if v == nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, err
	}
	return typed, err
}

// Cached returns the typed cached value for key, if present.
func Cached[T any](c *Cache, key string) (T, bool) {
	v, ok := c.Peek(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Invalidate drops every cached entry of the given resources and wakes
// their subscribers. It does not fence in-flight fetches.
func (c *Cache) Invalidate(resources ...string) {
	c.mu.Lock()
	for key := range c.entries {
		for _, resource := range resources {
			if resourceOf(key) == resource {
				delete(c.entries, key)
				break
			}
		}
	}
	c.mu.Unlock()

	for _, resource := range resources {
		c.logger.Debug("cache invalidated", "resource", resource)
		c.notify(resource)
	}
}

// Subscribe registers interest in changes to one resource. The channel
// receives a signal on every store or invalidation for that resource;
// cancel must be called when the view goes away.
func (c *Cache) Subscribe(resource string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	c.mu.Lock()
	c.subs[resource] = append(c.subs[resource], ch)
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		chans := c.subs[resource]
		for i, sub := range chans {
			if sub == ch {
				c.subs[resource] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

func (c *Cache) notify(resource string) {
	c.mu.RLock()
	chans := c.subs[resource]
	c.mu.RUnlock()

	for _, ch := range chans {
		select {
		case ch <- struct{}{}:
		default:
			// subscriber already has a pending signal
		}
	}
}
