package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/FairForge/veridical/internal/detection"
	"github.com/FairForge/veridical/internal/imagehash"
)

// Entry is a single cached detection result
type Entry struct {
	Fingerprint  imagehash.Fingerprint
	Result       detection.Result
	InsertedAt   time.Time
	LastAccessed time.Time
}

// ResultCache is a bounded LRU cache mapping image fingerprints to
// detection results. Lookup and Insert are serialized by a single
// mutex; both are O(1) and cheap relative to classification.
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	maxAge   time.Duration // 0 disables expiry
	items    map[string]*list.Element
	lruList  *list.List

	// Statistics
	hits      int64
	misses    int64
	evictions int64

	now func() time.Time // test hook
}

// NewResultCache creates a cache holding at most capacity results.
// maxAge of 0 keeps entries until evicted.
func NewResultCache(capacity int, maxAge time.Duration) *ResultCache {
	return &ResultCache{
		capacity: capacity,
		maxAge:   maxAge,
		items:    make(map[string]*list.Element),
		lruList:  list.New(),
		now:      time.Now,
	}
}

// Lookup returns the cached result for a fingerprint. On a hit the
// entry becomes the most recently used and the returned copy carries
// CacheHit=true. An entry older than maxAge is treated as absent,
// removed, and counted as a miss.
func (c *ResultCache) Lookup(fp imagehash.Fingerprint) (detection.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[fp.String()]
	if !exists {
		c.misses++
		return detection.Result{}, false
	}

	entry := elem.Value.(*Entry)

	if c.maxAge > 0 && c.now().Sub(entry.InsertedAt) >= c.maxAge {
		c.lruList.Remove(elem)
		delete(c.items, fp.String())
		c.misses++
		return detection.Result{}, false
	}

	// Move to front (most recently used)
	c.lruList.MoveToFront(elem)
	entry.LastAccessed = c.now()

	c.hits++
	return entry.Result.WithCacheHit(), true
}

// Insert stores a result for a fingerprint. An existing key is updated
// in place and refreshed; a new key beyond capacity evicts exactly one
// least-recently-used entry first. Insert always succeeds.
func (c *ResultCache) Insert(fp imagehash.Fingerprint, result detection.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := fp.String()
	now := c.now()

	if elem, exists := c.items[key]; exists {
		c.lruList.MoveToFront(elem)
		entry := elem.Value.(*Entry)
		entry.Result = result
		entry.InsertedAt = now
		entry.LastAccessed = now
		return
	}

	if c.lruList.Len() >= c.capacity {
		c.evictOldest()
	}

	entry := &Entry{
		Fingerprint:  fp,
		Result:       result,
		InsertedAt:   now,
		LastAccessed: now,
	}
	c.items[key] = c.lruList.PushFront(entry)
}

// evictOldest removes the least recently used entry. Caller holds the lock.
func (c *ResultCache) evictOldest() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}

	c.lruList.Remove(elem)
	entry := elem.Value.(*Entry)
	delete(c.items, entry.Fingerprint.String())
	c.evictions++
}

// Stats holds cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	Capacity  int
}

// HitRate returns the fraction of lookups served from cache.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns current cache statistics
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.lruList.Len(),
		Capacity:  c.capacity,
	}
}

// Clear removes all entries and resets counters
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.lruList = list.New()
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}
