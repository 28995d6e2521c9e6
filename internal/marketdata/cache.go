package marketdata

import (
	"sync"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
)

// seriesCache deduplicates concurrent fetches of the same (ticker, period)
// key within one run. The first caller for a key becomes the writer; later
// callers block on the entry until the writer publishes a result. Only
// successful fetches stay cached: a failed fill is dropped so a later
// attempt can retry.
type seriesCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	done   chan struct{}
	series *contracts.AssetSeries
	err    error
}

func newSeriesCache() *seriesCache {
	return &seriesCache{entries: make(map[string]*cacheEntry)}
}

// do returns the cached result for key, or runs fn exactly once across all
// concurrent callers. Callers already waiting on an in-flight fill share its
// outcome either way; an error evicts the entry before it is published, so
// the next caller re-fetches with a clean slate.
func (c *seriesCache) do(key string, fn func() (*contracts.AssetSeries, error)) (*contracts.AssetSeries, error) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		<-entry.done
		return entry.series, entry.err
	}

	entry := &cacheEntry{done: make(chan struct{})}
	c.entries[key] = entry
	c.mu.Unlock()

	entry.series, entry.err = fn()
	if entry.err != nil {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}
	close(entry.done)
	return entry.series, entry.err
}
