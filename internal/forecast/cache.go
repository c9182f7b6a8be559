package forecast

import (
	"sync"

	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/iwvelando/portfolio-projection/pkg/projection"
)

// Cache memoizes projection rows keyed on the input value. It holds at most
// limit entries and evicts the oldest first. Callers always receive their own
// copy of the rows. A nil *Cache projects without memoizing.
type Cache struct {
	mu      sync.Mutex
	limit   int
	entries map[projection.Input][]projection.YearRow
	order   []projection.Input
	hits    uint64
	misses  uint64
}

// NewCache returns a Cache bounded to limit entries, or to
// constants.DefaultCacheEntries when limit is not positive.
func NewCache(limit int) *Cache {
	if limit <= 0 {
		limit = constants.DefaultCacheEntries
	}
	return &Cache{
		limit:   limit,
		entries: make(map[projection.Input][]projection.YearRow, limit),
	}
}

// Project returns the rows for in, computing them at most once per cached input.
// Inputs with non-finite fields are projected without being stored.
func (c *Cache) Project(in projection.Input) []projection.YearRow {
	if c == nil {
		return projection.Project(in)
	}
	if !in.Finite() {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return projection.Project(in)
	}

	c.mu.Lock()
	if rows, ok := c.entries[in]; ok {
		c.hits++
		c.mu.Unlock()
		return clone(rows)
	}
	c.misses++
	c.mu.Unlock()

	rows := projection.Project(in)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[in]; !ok {
		if len(c.order) >= c.limit {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.entries[in] = rows
		c.order = append(c.order, in)
	}
	return clone(rows)
}

// Len reports the number of cached inputs.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats reports cache hits and misses since creation.
func (c *Cache) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func clone(rows []projection.YearRow) []projection.YearRow {
	out := make([]projection.YearRow, len(rows))
	copy(out, rows)
	return out
}
