package cache

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/finquote/quotegate/internal/logger"
	"github.com/finquote/quotegate/internal/metrics"
	"github.com/finquote/quotegate/internal/quote"
)

// Options configures a PriceCache. All fields are read once at construction
// and never change afterwards.
type Options struct {
	// Enabled toggles caching. A disabled cache degrades every operation to
	// "nothing cached" without recording any state.
	Enabled bool

	// TTLDays is how long a symbol stays cached after its last client
	// request. Symbols older than this are evicted during refresh scans.
	TTLDays int

	// RefreshInterval is the wall-clock period between background refresh
	// passes. The cache only reports it in Stats; the Refresher drives it.
	RefreshInterval time.Duration

	// FetchDelay is the pause between consecutive upstream fetches during a
	// refresh pass. It keeps refresh traffic strictly sequential so the
	// upstream source never sees a burst. Zero means DefaultFetchDelay.
	FetchDelay time.Duration
}

// DefaultFetchDelay spaces out upstream calls during a refresh pass.
const DefaultFetchDelay = 500 * time.Millisecond

// symbolMeta tracks per-symbol recency. lastRequested is bumped by every
// client lookup (hit or miss); lastRefreshed by every successful write.
type symbolMeta struct {
	lastRequested time.Time
	lastRefreshed time.Time
}

// PriceCache is an in-memory, TTL-bound store of price quotes keyed by
// ticker symbol. Symbols are discovered dynamically from request traffic:
// any lookup marks the symbol as warm, and warm symbols are re-fetched by
// the background refresher until clients stop asking for them.
//
// One mutex guards the quote table, the metadata table, and the counters
// together, so every read-modify-write sequence is atomic and a cached
// quote always has a matching metadata record. Upstream fetches never run
// under the lock.
type PriceCache struct {
	enabled         bool
	ttlDays         int
	refreshInterval time.Duration
	fetchDelay      time.Duration

	mu     sync.Mutex
	quotes map[string]*quote.Quote
	meta   map[string]*symbolMeta

	hits          uint64
	misses        uint64
	refreshes     uint64
	refreshErrors uint64

	// now is swapped in tests to control TTL arithmetic.
	now func() time.Time

	log *slog.Logger
}

// New constructs a PriceCache from the given options.
func New(opts Options) *PriceCache {
	if opts.FetchDelay <= 0 {
		opts.FetchDelay = DefaultFetchDelay
	}

	c := &PriceCache{
		enabled:         opts.Enabled,
		ttlDays:         opts.TTLDays,
		refreshInterval: opts.RefreshInterval,
		fetchDelay:      opts.FetchDelay,
		quotes:          make(map[string]*quote.Quote),
		meta:            make(map[string]*symbolMeta),
		now:             time.Now,
		log:             logger.WithComponent("cache"),
	}

	c.log.Info("price cache initialized",
		"enabled", opts.Enabled,
		"ttl_days", opts.TTLDays,
		"refresh_interval", opts.RefreshInterval.String(),
	)

	return c
}

// Normalize canonicalizes a ticker symbol for use as a cache key.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Get returns a copy of the cached quote for symbol, or (nil, false) on a
// miss. Every lookup, hit or miss, bumps the symbol's last-requested time;
// that visit is what makes the symbol eligible for background refresh.
func (c *PriceCache) Get(symbol string) (*quote.Quote, bool) {
	if !c.enabled {
		return nil, false
	}

	symbol = Normalize(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Record the visit before checking presence, so misses warm the symbol too.
	m, ok := c.meta[symbol]
	if !ok {
		m = &symbolMeta{}
		c.meta[symbol] = m
	}
	m.lastRequested = c.now()

	if q, ok := c.quotes[symbol]; ok {
		c.hits++
		metrics.CacheHits.Inc()
		c.log.Debug("cache hit", "symbol", symbol)
		return q.Clone(), true
	}

	c.misses++
	metrics.CacheMisses.Inc()
	c.log.Debug("cache miss", "symbol", symbol)
	return nil, false
}

// Set stores a copy of q under symbol and marks the symbol both refreshed
// and requested. Hit/miss counters are not touched.
func (c *PriceCache) Set(symbol string, q *quote.Quote) {
	if !c.enabled || q == nil {
		return
	}

	symbol = Normalize(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.quotes[symbol] = q.Clone()

	m, ok := c.meta[symbol]
	if !ok {
		m = &symbolMeta{}
		c.meta[symbol] = m
	}
	now := c.now()
	m.lastRefreshed = now
	m.lastRequested = now

	metrics.CacheSymbols.Set(float64(len(c.quotes)))
	c.log.Debug("cached quote", "symbol", symbol, "price", q.Price)
}

// SymbolsToRefresh returns the sorted list of symbols still inside the TTL
// window. As a side effect it evicts every expired symbol from both tables:
// each call is also an eviction scan, not a read-only query.
func (c *PriceCache) SymbolsToRefresh() []string {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().AddDate(0, 0, -c.ttlDays)

	var keep []string
	var expired []string
	for symbol, m := range c.meta {
		if m.lastRequested.After(cutoff) {
			keep = append(keep, symbol)
		} else {
			expired = append(expired, symbol)
		}
	}

	for _, symbol := range expired {
		delete(c.quotes, symbol)
		delete(c.meta, symbol)
		metrics.CacheEvictions.Inc()
		c.log.Info("evicted expired symbol", "symbol", symbol)
	}
	if len(expired) > 0 {
		metrics.CacheSymbols.Set(float64(len(c.quotes)))
	}

	sort.Strings(keep)
	return keep
}

// RefreshAll re-fetches every warm symbol from the upstream source, one at a
// time with a fixed delay between fetches. Fetching happens outside the
// lock; only the commit of a fresh quote takes it. A failed or empty fetch
// counts as a refresh error and leaves the previous quote in place: stale
// data beats no data. Cancelling ctx abandons the remainder of the pass.
func (c *PriceCache) RefreshAll(ctx context.Context, f quote.Fetcher) {
	if !c.enabled {
		return
	}

	symbols := c.SymbolsToRefresh()
	if len(symbols) == 0 {
		c.log.Debug("no symbols to refresh")
		return
	}

	c.log.Info("refreshing cached symbols", "count", len(symbols))

	refreshed := 0
	failed := 0
	for i, symbol := range symbols {
		q, err := f.Fetch(ctx, symbol)
		if err != nil || !q.Usable() {
			c.recordRefreshError()
			failed++
			c.log.Warn("refresh failed", "symbol", symbol, "error", err)
		} else {
			c.commitRefresh(symbol, q)
			refreshed++
			c.log.Debug("refreshed symbol", "symbol", symbol, "price", q.Price)
		}

		if i == len(symbols)-1 {
			break
		}
		select {
		case <-ctx.Done():
			c.log.Warn("refresh pass cancelled", "remaining", len(symbols)-i-1)
			return
		case <-time.After(c.fetchDelay):
		}
	}

	c.log.Info("refresh pass completed",
		"refreshed", refreshed,
		"errors", failed,
		"total", len(symbols),
	)
}

// commitRefresh stores a freshly fetched quote. If the symbol was removed
// between the eligibility scan and the fetch (Clear or Remove raced us), the
// result is dropped rather than resurrecting the entry.
func (c *PriceCache) commitRefresh(symbol string, q *quote.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.meta[symbol]
	if !ok {
		return
	}

	c.quotes[symbol] = q.Clone()
	m.lastRefreshed = c.now()
	c.refreshes++
	metrics.CacheRefreshes.Inc()
	metrics.CacheSymbols.Set(float64(len(c.quotes)))
}

func (c *PriceCache) recordRefreshError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshErrors++
	metrics.CacheRefreshErrors.Inc()
}

// Stats is a snapshot of cache counters and configuration.
type Stats struct {
	Enabled                bool     `json:"enabled"`
	CachedSymbols          int      `json:"cached_symbols"`
	TotalRequests          uint64   `json:"total_requests"`
	Hits                   uint64   `json:"cache_hits"`
	Misses                 uint64   `json:"cache_misses"`
	HitRatePercent         float64  `json:"hit_rate_percent"`
	Refreshes              uint64   `json:"total_refreshes"`
	RefreshErrors          uint64   `json:"refresh_errors"`
	TTLDays                int      `json:"ttl_days"`
	RefreshIntervalMinutes int      `json:"refresh_interval_minutes"`
	Symbols                []string `json:"symbols"`
}

// Stats returns current counters plus the cached symbol list, sorted.
// HitRatePercent is 0 when no requests have been observed.
func (c *PriceCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(c.hits)/float64(total)*100*100) / 100
	}

	symbols := make([]string, 0, len(c.quotes))
	for s := range c.quotes {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	return Stats{
		Enabled:                c.enabled,
		CachedSymbols:          len(c.quotes),
		TotalRequests:          total,
		Hits:                   c.hits,
		Misses:                 c.misses,
		HitRatePercent:         rate,
		Refreshes:              c.refreshes,
		RefreshErrors:          c.refreshErrors,
		TTLDays:                c.ttlDays,
		RefreshIntervalMinutes: int(c.refreshInterval / time.Minute),
		Symbols:                symbols,
	}
}

// SymbolInfo describes one cached symbol for diagnostics.
type SymbolInfo struct {
	Symbol        string       `json:"symbol"`
	Price         float64      `json:"price"`
	Cached        bool         `json:"cached"`
	LastRequested time.Time    `json:"last_requested"`
	LastRefreshed time.Time    `json:"last_refreshed"`
	Quote         *quote.Quote `json:"data"`
}

// SymbolInfo returns the cached quote and timestamps for one symbol, or
// (zero, false) if it is not cached. It is diagnostic-only: it does not bump
// last-requested and so never extends the symbol's TTL eligibility. A
// disabled cache reports nothing cached.
func (c *PriceCache) SymbolInfo(symbol string) (SymbolInfo, bool) {
	if !c.enabled {
		return SymbolInfo{}, false
	}

	symbol = Normalize(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.quotes[symbol]
	if !ok {
		return SymbolInfo{}, false
	}
	m := c.meta[symbol]

	return SymbolInfo{
		Symbol:        symbol,
		Price:         q.Price,
		Cached:        true,
		LastRequested: m.lastRequested,
		LastRefreshed: m.lastRefreshed,
		Quote:         q.Clone(),
	}, true
}

// Clear atomically empties both tables and returns the number of quotes
// removed. Hit/miss and refresh counters are left untouched.
func (c *PriceCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.quotes)
	c.quotes = make(map[string]*quote.Quote)
	c.meta = make(map[string]*symbolMeta)

	metrics.CacheSymbols.Set(0)
	c.log.Info("cache cleared", "removed", count)
	return count
}

// Remove deletes one symbol from both tables. It reports whether a cached
// quote was actually present.
func (c *PriceCache) Remove(symbol string) bool {
	symbol = Normalize(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.quotes[symbol]
	if !ok {
		return false
	}

	delete(c.quotes, symbol)
	delete(c.meta, symbol)
	metrics.CacheSymbols.Set(float64(len(c.quotes)))
	c.log.Info("removed symbol from cache", "symbol", symbol)
	return true
}

// Enabled reports whether caching is active.
func (c *PriceCache) Enabled() bool { return c.enabled }

// RefreshInterval returns the configured background refresh period.
func (c *PriceCache) RefreshInterval() time.Duration { return c.refreshInterval }
