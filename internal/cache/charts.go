package cache

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"bikeshare/internal/metrics"
)

// ChartKey identifies one rendered chart. Including the dataset version
// means a reload never serves stale images.
type ChartKey struct {
	Version string
	Chart   string
	Start   string
	End     string
}

func (k ChartKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.Version, k.Chart, k.Start, k.End)
}

// ChartCache stores rendered SVG bytes. Concurrent misses for the same key
// render once.
type ChartCache struct {
	lru   *LRUCache[[]byte]
	group singleflight.Group
}

// NewChartCache creates a chart cache holding up to size entries for ttl.
func NewChartCache(size int, ttl time.Duration) *ChartCache {
	return &ChartCache{lru: NewLRUCache[[]byte](size, ttl)}
}

// GetOrRender returns the cached chart for key or calls render and stores
// its result. Render errors are not cached.
func (c *ChartCache) GetOrRender(key ChartKey, render func() ([]byte, error)) ([]byte, error) {
	k := key.String()
	if b, ok := c.lru.Get(k); ok {
		metrics.RecordChartCache(true)
		return b, nil
	}
	metrics.RecordChartCache(false)
	v, err, _ := c.group.Do(k, func() (interface{}, error) {
		b, err := render()
		if err != nil {
			return nil, err
		}
		c.lru.Set(k, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// CleanExpired implements Cleaner.
func (c *ChartCache) CleanExpired() int { return c.lru.CleanExpired() }

// Size returns the number of cached charts.
func (c *ChartCache) Size() int { return c.lru.Size() }
