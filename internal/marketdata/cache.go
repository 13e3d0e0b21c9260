package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/signal-backtest/internal/metrics"
	"github.com/yourusername/signal-backtest/internal/models"
)

// CachedProvider memoizes candle windows of another provider. Entries expire after
// ttl and the cache never holds more than maxSize windows. Failed fetches are not cached.
type CachedProvider struct {
	next    Provider
	cache   *cache.Cache
	ttl     time.Duration
	maxSize int

	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewCachedProvider wraps next with a TTL and size bounded cache
func NewCachedProvider(next Provider, ttl time.Duration, maxSize int) *CachedProvider {
	return &CachedProvider{
		next:    next,
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Name returns the wrapped provider's name
func (c *CachedProvider) Name() string {
	return c.next.Name()
}

// GetCandles serves the window from cache or fetches and stores it. Callers get
// their own copy of the slice.
func (c *CachedProvider) GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error) {
	key := cacheKey(symbol, start, end)

	if cached, found := c.cache.Get(key); found {
		if candles, ok := cached.([]models.Candle); ok {
			c.record(true)
			return copyCandles(candles), nil
		}
	}
	c.record(false)

	candles, err := c.next.GetCandles(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	c.store(key, copyCandles(candles))
	return candles, nil
}

// Stats returns hit and miss counts and the current entry count
func (c *CachedProvider) Stats() (hits, misses uint64, entries int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hitCount, c.missCount, c.cache.ItemCount()
}

// HitRatio returns the fraction of lookups served from cache
func (c *CachedProvider) HitRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hitRatio()
}

// Clear drops every cached window
func (c *CachedProvider) Clear() {
	c.cache.Flush()
}

func (c *CachedProvider) store(key string, candles []models.Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache.ItemCount() >= c.maxSize {
		c.cache.DeleteExpired()
	}
	if c.cache.ItemCount() >= c.maxSize {
		c.cache.Flush()
	}
	c.cache.Set(key, candles, c.ttl)
}

func (c *CachedProvider) record(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hit {
		c.hitCount++
	} else {
		c.missCount++
	}
	metrics.UpdateCacheHitRatio(c.hitRatio())
}

func (c *CachedProvider) hitRatio() float64 {
	total := c.hitCount + c.missCount
	if total == 0 {
		return 0
	}
	return float64(c.hitCount) / float64(total)
}

func cacheKey(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s:%d:%d", NormalizeSymbol(symbol), start.UnixMilli(), end.UnixMilli())
}

func copyCandles(candles []models.Candle) []models.Candle {
	out := make([]models.Candle, len(candles))
	copy(out, candles)
	return out
}
