// Package cache provides the TTL'd LRU used to memoize resolved role
// permission chains. Entries are keyed by (generation, role id, inherited
// flag); any role mutation bumps the generation, so a stale chain is never
// served after an administrative change.
package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ChainCache memoizes effective-permission resolutions per role.
type ChainCache struct {
	lru        *expirable.LRU[string, []string]
	generation atomic.Uint64
	observe    func(hit bool)
}

// NewChainCache creates a cache holding up to size chains, each expiring
// after ttl.
func NewChainCache(size int, ttl time.Duration) *ChainCache {
	return &ChainCache{
		lru: expirable.NewLRU[string, []string](size, nil, ttl),
	}
}

func (c *ChainCache) key(roleID string, includeInherited bool) string {
	return fmt.Sprintf("%d:%s:%t", c.generation.Load(), roleID, includeInherited)
}

// SetObserver installs a hit/miss callback, typically a metrics counter.
// Must be called before the cache starts serving requests.
func (c *ChainCache) SetObserver(observe func(hit bool)) {
	c.observe = observe
}

// Get returns the cached permission id chain for a role, if present.
func (c *ChainCache) Get(roleID string, includeInherited bool) ([]string, bool) {
	chain, ok := c.lru.Get(c.key(roleID, includeInherited))
	if c.observe != nil {
		c.observe(ok)
	}
	return chain, ok
}

// Set stores a resolved permission id chain for a role.
func (c *ChainCache) Set(roleID string, includeInherited bool, permissionIDs []string) {
	c.lru.Add(c.key(roleID, includeInherited), permissionIDs)
}

// Invalidate makes every cached chain unreachable. Called on any role
// create, update or delete.
func (c *ChainCache) Invalidate() {
	c.generation.Add(1)
}

// Generation returns the current cache generation, for observability.
func (c *ChainCache) Generation() uint64 {
	return c.generation.Load()
}
