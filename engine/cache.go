package engine

import (
	"sync"
	"time"

	"github.com/cyp0633/librecur/rule"
)

// cacheKey identifies a parsed rule by the task it belongs to and the
// exact expression text. Comparable struct keys make collisions
// impossible and let invalidation find every key a task produced.
type cacheKey struct {
	taskID string
	expr   string
}

type cacheEntry struct {
	rule       *rule.Rule
	hits       uint64
	lastAccess time.Time
	createdAt  time.Time
}

// ruleCache memoizes parsed rules with least-recently-accessed eviction.
// Mutating operations serialize on the mutex; a stale entry after a task's
// rule or anchor changes silently yields wrong answers, so callers must
// invalidate on every such change.
type ruleCache struct {
	mu       sync.RWMutex
	entries  map[cacheKey]*cacheEntry
	capacity int
	hits     uint64
	misses   uint64
}

func newRuleCache(capacity int) *ruleCache {
	if capacity < 1 {
		capacity = DefaultEngineConfig.CacheCapacity
	}
	return &ruleCache{
		entries:  make(map[cacheKey]*cacheEntry),
		capacity: capacity,
	}
}

// getOrParse returns the cached rule for (taskID, expr), parsing and
// inserting on miss. Returned handles are immutable; only the recency
// bookkeeping mutates on a hit.
func (c *ruleCache) getOrParse(taskID, expr string, anchor time.Time, loc *time.Location) (*rule.Rule, error) {
	key := cacheKey{taskID: taskID, expr: expr}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.hits++
		entry.lastAccess = time.Now()
		c.hits++
		return entry.rule, nil
	}

	c.misses++
	parsed, err := rule.Parse(expr, anchor, loc)
	if err != nil {
		return nil, err
	}

	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	now := time.Now()
	c.entries[key] = &cacheEntry{
		rule:       parsed,
		lastAccess: now,
		createdAt:  now,
	}
	return parsed, nil
}

// evictOldest removes the least recently accessed entry. Caller holds the
// write lock.
func (c *ruleCache) evictOldest() {
	var oldestKey cacheKey
	var oldest time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.lastAccess.Before(oldest) {
			oldestKey, oldest = key, entry.lastAccess
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// invalidateTask removes every entry derived from the given task id and
// returns how many were removed.
func (c *ruleCache) invalidateTask(taskID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if key.taskID == taskID {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *ruleCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*cacheEntry)
	c.hits = 0
	c.misses = 0
}

// CacheStats describes cache occupancy and effectiveness. The numbers are
// for tuning only, never correctness.
type CacheStats struct {
	Size        int
	Capacity    int
	HitRate     float64
	TotalHits   uint64
	TotalMisses uint64
}

func (c *ruleCache) stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		Size:        len(c.entries),
		Capacity:    c.capacity,
		TotalHits:   c.hits,
		TotalMisses: c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}
