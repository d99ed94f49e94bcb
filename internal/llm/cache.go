package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Veraticus/scribe/internal/model"
)

// cacheEntry represents a cached extraction result.
type cacheEntry struct {
	expiry time.Time
	record model.CandidateRecord
}

// extractionCache keeps extraction results keyed by a hash of the input
// text, so the note itself is never held as a map key.
type extractionCache struct {
	entries map[string]cacheEntry
	now     func() time.Time
	ttl     time.Duration
	mu      sync.RWMutex
}

// newExtractionCache creates a cache with the given TTL. A negative TTL
// disables caching.
func newExtractionCache(ttl time.Duration) *extractionCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &extractionCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// get returns a copy of the cached record if present and not expired.
func (c *extractionCache) get(key string) (model.CandidateRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || c.now().After(entry.expiry) {
		return model.CandidateRecord{}, false
	}
	return entry.record.Clone(), true
}

// set stores a copy of record and sweeps expired entries.
func (c *extractionCache) set(key string, record model.CandidateRecord) {
	if c.ttl < 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{record: record.Clone(), expiry: now.Add(c.ttl)}
}

// size returns the number of entries in the cache.
func (c *extractionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
