package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

type entry struct {
	val       []byte
	expiresAt time.Time
}

// Memory is an in-process Cache used by tests and as a local fallback.
// Patterns follow redis glob semantics for the subset path.Match covers.
type Memory struct {
	mu sync.RWMutex
	m  map[string]entry
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]entry)}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		return nil, ErrCacheMiss
	}
	val := make([]byte, len(e.val))
	copy(val, e.val)
	return val, nil
}

func (c *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{val: make([]byte, len(val))}
	copy(e.val, val)
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.m[key] = e
	return nil
}

func (c *Memory) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.m, k)
	}
	return nil
}

func (c *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var keys []string
	now := time.Now()
	for k, e := range c.m {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (c *Memory) Ping(context.Context) error { return nil }

func (c *Memory) Close() error { return nil }

// Len reports live entries, expired ones excluded.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	now := time.Now()
	for _, e := range c.m {
		if e.expiresAt.IsZero() || now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}
