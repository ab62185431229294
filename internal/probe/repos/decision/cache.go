package decision

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/probecache/internal/probe/services/membership"
)

// cache is an LRU-backed implementation of membership.DecisionCache. It
// memoizes fast-path membership answers and tracks hits, misses and
// evictions.
type cache struct {
	lru       *lru.Cache[string, bool]
	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a DecisionCache with the given capacity. Size must be
// positive; callers that want caching disabled should not construct one.
func New(size int) (membership.DecisionCache, error) {
	var c cache
	// NewWithEvict observes evictions, including Purge-induced ones.
	backing, err := lru.NewWithEvict(size, func(string, bool) {
		atomic.AddUint64(&c.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	c.lru = backing
	return &c, nil
}

// Get looks up a memoized answer for key.
func (c *cache) Get(key string) (bool, bool) {
	if member, ok := c.lru.Get(key); ok {
		atomic.AddUint64(&c.hits, 1)
		return member, true
	}
	atomic.AddUint64(&c.misses, 1)
	return false, false
}

// Put memoizes the answer for key.
func (c *cache) Put(key string, member bool) {
	c.lru.Add(key, member)
}

// Len returns the number of memoized answers.
func (c *cache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *cache) Purge() { c.lru.Purge() }

// Stats returns cumulative hit/miss/eviction counters.
func (c *cache) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses), atomic.LoadUint64(&c.evictions)
}

var _ membership.DecisionCache = (*cache)(nil)
