// Package session caches the resolved user record so authenticated
// requests can skip the group directory.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/dukerupert/fridgly/internal/model"
)

const DefaultTTL = 24 * time.Hour

// Cache stores user records by identity id. Load returns nil on a miss.
type Cache interface {
	Save(ctx context.Context, u *model.User) error
	Load(ctx context.Context, id string) (*model.User, error)
}

type memoryEntry struct {
	user    model.User
	expires time.Time
}

// MemoryCache is a process-local Cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Save(_ context.Context, u *model.User) error {
	entry := memoryEntry{user: *u, expires: c.now().Add(c.ttl)}
	entry.user.Groups = append([]string(nil), u.Groups...)

	c.mu.Lock()
	c.entries[u.ID] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Load(_ context.Context, id string) (*model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, id)
		return nil, nil
	}
	u := entry.user
	u.Groups = append([]string(nil), entry.user.Groups...)
	return &u, nil
}
