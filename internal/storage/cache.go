package storage

import (
	"sync"
	"time"

	"github.com/Veraticus/scribe/internal/model"
)

type cacheKey struct {
	category model.Category
	patient  model.PatientID
}

type cacheEntry struct {
	expires time.Time
	value   any
}

// readCache holds list results per category and patient until they expire
// or are invalidated by a commit.
type readCache struct {
	entries map[cacheKey]cacheEntry
	now     func() time.Time
	ttl     time.Duration
	mu      sync.RWMutex
}

func newReadCache(ttl time.Duration) *readCache {
	return &readCache{
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *readCache) get(category model.Category, patient model.PatientID) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[cacheKey{category, patient}]
	if !ok || c.now().After(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

func (c *readCache) put(category model.Category, patient model.PatientID, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 {
		return
	}
	c.entries[cacheKey{category, patient}] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
}

func (c *readCache) invalidate(category model.Category, patient model.PatientID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{category, patient})
}

func (c *readCache) setTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
	if ttl <= 0 {
		c.entries = make(map[cacheKey]cacheEntry)
	}
}

// cachedList serves a list read from the cache or loads and caches it.
// Callers get their own copy of the slice.
func cachedList[T any](c *readCache, category model.Category, patient model.PatientID, load func() ([]T, error)) ([]T, error) {
	if value, ok := c.get(category, patient); ok {
		if items, isSlice := value.([]T); isSlice {
			return append([]T{}, items...), nil
		}
	}
	items, err := load()
	if err != nil {
		return nil, err
	}
	c.put(category, patient, append([]T{}, items...))
	return items, nil
}
