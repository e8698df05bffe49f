package storage

import (
	"context"
	"sync"
	"time"

	"github.com/0xmdrakib/BaseTree/types"
)

type cachedProfile struct {
	profile   types.Profile
	expiresAt time.Time
}

// MemoryProfileCache is an in-process ProfileCache
type MemoryProfileCache struct {
	mu    sync.RWMutex
	items map[int64]cachedProfile
	now   func() time.Time
}

// NewMemoryProfileCache creates an empty in-memory cache
func NewMemoryProfileCache() *MemoryProfileCache {
	return &MemoryProfileCache{
		items: make(map[int64]cachedProfile),
		now:   time.Now,
	}
}

// Get returns the cached profile for fid unless it has expired
func (c *MemoryProfileCache) Get(_ context.Context, fid int64) (*types.Profile, bool, error) {
	c.mu.RLock()
	item, ok := c.items[fid]
	c.mu.RUnlock()

	if !ok || !c.now().Before(item.expiresAt) {
		return nil, false, nil
	}
	p := item.profile
	return &p, true, nil
}

// Put stores profile for ttl
func (c *MemoryProfileCache) Put(_ context.Context, profile types.Profile, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[profile.FID] = cachedProfile{profile: profile, expiresAt: c.now().Add(ttl)}
	return nil
}

// Purge drops expired entries and returns how many were removed
func (c *MemoryProfileCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for fid, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, fid)
			removed++
		}
	}
	return removed
}

// Janitor purges expired entries every interval until ctx is done
func (c *MemoryProfileCache) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}
