package catalog

import (
	"sync"
	"time"
)

// DetailCache is an in-process store of fetched workflow details. Eviction is
// coarse: the whole cache is cleared at once when the TTL since the last
// clear elapses, checked lazily at the start of each discovery pass. There is
// no background eviction and no per-entry TTL. The cache does not survive
// process restarts and makes no such promise.
type DetailCache struct {
	mu          sync.RWMutex
	details     map[string]WorkflowDetail
	lastCleared time.Time
	ttl         time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewDetailCache creates a cache with the given TTL.
// A zero ttl falls back to DefaultCacheTTL.
func NewDetailCache(ttl time.Duration) *DetailCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &DetailCache{
		details:     make(map[string]WorkflowDetail),
		lastCleared: time.Now(),
		ttl:         ttl,
		now:         time.Now,
	}
}

// Get returns the cached detail for id, if present.
func (c *DetailCache) Get(id string) (WorkflowDetail, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	detail, ok := c.details[id]
	return detail, ok
}

// Put stores the detail for id.
func (c *DetailCache) Put(id string, detail WorkflowDetail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details[id] = detail
}

// Expire clears the cache if the TTL has elapsed since the last clear, and
// resets the clock if it did. Call at the start of each discovery pass.
// Returns true if the cache was cleared.
func (c *DetailCache) Expire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now().Sub(c.lastCleared) <= c.ttl {
		return false
	}
	c.details = make(map[string]WorkflowDetail)
	c.lastCleared = c.now()
	return true
}

// Clear empties the cache immediately and rewinds the clear timestamp to the
// epoch, guaranteeing the next Expire treats the cache as cold. Exposed to
// the control plane as "reload tools".
func (c *DetailCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details = make(map[string]WorkflowDetail)
	c.lastCleared = time.Time{}
}

// Len returns the number of cached entries.
func (c *DetailCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.details)
}
