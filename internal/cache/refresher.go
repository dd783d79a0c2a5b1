package cache

import (
	"context"
	"time"

	"github.com/finquote/quotegate/internal/logger"
	"github.com/finquote/quotegate/internal/quote"
)

// Refresher drives periodic background refreshes of a PriceCache. It is a
// single long-lived worker started once by the process entry point; a failed
// pass is logged and the loop simply waits out the next interval.
type Refresher struct {
	cache    *PriceCache
	fetcher  quote.Fetcher
	interval time.Duration
	stop     chan struct{}
}

// NewRefresher creates a refresher for the given cache and upstream fetcher.
func NewRefresher(c *PriceCache, f quote.Fetcher, interval time.Duration) *Refresher {
	return &Refresher{
		cache:    c,
		fetcher:  f,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start runs the refresh loop until ctx is cancelled or Stop is called.
// Each iteration waits the full interval first, then refreshes; there is no
// immediate pass on startup and no backoff after failures.
func (r *Refresher) Start(ctx context.Context) {
	if !r.cache.Enabled() {
		logger.Info("cache disabled, refresher not running")
		return
	}

	logger.Info("starting cache refresher", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("cache refresher stopped by context")
			return
		case <-r.stop:
			logger.Info("cache refresher stopped by signal")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

// Stop signals the refresh loop to exit.
func (r *Refresher) Stop() {
	close(r.stop)
}

// runOnce executes one refresh pass, isolating panics so that a single bad
// pass can never take the loop down.
func (r *Refresher) runOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("refresh pass panicked", "panic", rec)
		}
	}()
	r.cache.RefreshAll(ctx, r.fetcher)
}
