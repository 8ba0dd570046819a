package api

import (
	"sync"

	"github.com/solarrank/solarrank/pkg/catalog"
	"github.com/solarrank/solarrank/pkg/pipeline"
	"github.com/solarrank/solarrank/pkg/spatial"
)

// DefaultCacheSize is used when the configured size is not positive.
const DefaultCacheSize = 16

// RunCache is a thread-safe LRU cache of loaded runs and their catalogs.
type RunCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*CachedRun
	order   []string // oldest first
}

// CachedRun is a loaded run with its ranked catalog and a spatial index
// over the ranked buildings' centroids. Index refs are ranks.
type CachedRun struct {
	Result  *pipeline.Result
	Catalog *catalog.Catalog
	Index   *spatial.Index
}

func newCachedRun(res *pipeline.Result) *CachedRun {
	cat := res.Catalog()
	entries := make([]spatial.Entry, 0, cat.Len())
	for i, b := range cat.All() {
		entries = append(entries, spatial.Entry{ID: b.ID, Ref: i + 1, Point: b.Centroid})
	}
	return &CachedRun{Result: res, Catalog: cat, Index: spatial.Build(entries)}
}

// NewRunCache creates a cache with the given maximum number of runs.
func NewRunCache(maxSize int) *RunCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &RunCache{
		maxSize: maxSize,
		entries: make(map[string]*CachedRun),
	}
}

// Get returns a cached run, or nil if not found.
func (c *RunCache) Get(runID string) *CachedRun {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[runID]
	if !ok {
		return nil
	}
	c.moveToEnd(runID)
	return entry
}

// Put caches a run, building its catalog and index, and evicts the least recently
// used run if full.
func (c *RunCache) Put(res *pipeline.Result) *CachedRun {
	entry := newCachedRun(res)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[res.RunID]; ok {
		c.entries[res.RunID] = entry
		c.moveToEnd(res.RunID)
		return entry
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[res.RunID] = entry
	c.order = append(c.order, res.RunID)
	return entry
}

// Len reports the number of cached runs.
func (c *RunCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *RunCache) moveToEnd(id string) {
	for i, k := range c.order {
		if k == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, id)
			return
		}
	}
}
