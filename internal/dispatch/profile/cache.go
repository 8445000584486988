// Package profile resolves vehicle owner profiles for one room session.
package profile

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/pkg/log"
)

// Cache memoises profiles by user id. Concurrent lookups of the same id share
// one request. Failed lookups are not cached; unknown users are.
type Cache struct {
	api core.ProfileAPI
	log log.Logger

	mu      sync.RWMutex
	gen     uint64
	entries map[string]*model.Profile

	group singleflight.Group
}

// NewCache creates an empty Cache.
func NewCache(api core.ProfileAPI, logger log.Logger) *Cache {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Cache{api: api, log: logger, entries: make(map[string]*model.Profile)}
}

// Get returns the profile of userID. A nil profile means the user has none.
// Concurrent lookups of one user share a request that outlives any single
// caller; each caller stops waiting when its own ctx ends.
func (c *Cache) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, nil
	}
	if p, ok := c.Cached(userID); ok {
		return p, nil
	}

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(gen, 10)+"/"+userID, func() (any, error) {
		p, err := c.api.ShortProfile(shared, userID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.entries[userID] = p
		}
		c.mu.Unlock()
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Profile), nil
	}
}

// Cached returns the cached profile of userID without a request.
func (c *Cache) Cached(userID string) (*model.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[userID]
	return p, ok
}

// Resolve looks up every distinct non-empty id and returns the known profiles.
// Lookup failures are logged and skipped.
func (c *Cache) Resolve(ctx context.Context, userIDs []string) map[string]*model.Profile {
	out := make(map[string]*model.Profile)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			p, err := c.Get(ctx, id)
			if err != nil {
				c.log.Warn("Failed to fetch profile", "user", id, "error", err)
				return
			}
			if p == nil {
				return
			}
			mu.Lock()
			out[id] = p
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	return out
}

// Reset drops every cached profile. Lookups in flight do not repopulate the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[string]*model.Profile)
}
