package recommend

import (
	"sort"
	"sync"

	"github.com/phamiq/ai-gateway/pkg/models"
)

// Cache is the process-lifetime recommendation store. Unbounded, no
// eviction: fallback results are cached on purpose so terminally
// unavailable cases do not hammer the provider. Mutex-guarded because
// handlers run on parallel goroutines.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*models.Recommendation
}

// NewCache creates an empty recommendation cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*models.Recommendation)}
}

// Get returns the cached recommendation for key, if any.
func (c *Cache) Get(key string) (*models.Recommendation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.entries[key]
	return rec, ok
}

// Put stores a recommendation. Last write wins for concurrent misses on the
// same key; recommendations are idempotent so this is safe.
func (c *Cache) Put(key string, rec *models.Recommendation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = rec
}

// Clear drops all cached recommendations.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*models.Recommendation)
}

// Stats reports the cache size and keys, sorted for stable output.
func (c *Cache) Stats() models.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return models.CacheStats{Size: len(keys), Keys: keys}
}
