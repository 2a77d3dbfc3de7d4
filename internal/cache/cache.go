package cache

import (
	"sync"
	"time"
)

// Cache is an in-process map where every entry carries its own expiry.
type Cache struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}
type entry struct {
	val any
	exp time.Time
}

func New() *Cache {
	return &Cache{
		m:   make(map[string]entry),
		now: time.Now,
	}
}

// WithNow replaces the clock used for expiry checks.
func (c *Cache) WithNow(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) Get(key string) (any, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !now.Before(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Cache) SetUntil(key string, val any, exp time.Time) {
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: exp}
	c.mu.Unlock()
}

// Sweep drops expired entries and reports how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	for k, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, k)
			removed++
		}
	}
	c.mu.Unlock()

	return removed
}
