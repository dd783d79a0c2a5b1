package quote

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/finquote/quotegate/internal/config"
	"github.com/finquote/quotegate/internal/metrics"
)

var (
	limiter     *rate.Limiter
	limiterOnce sync.Once
)

// initLimiter creates the upstream rate limiter from config.
func initLimiter() {
	cfg := config.Load()
	limiter = rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), cfg.UpstreamBurst)
}

// getLimiter returns the singleton limiter shared by every upstream call,
// so on-demand fetches and background refreshes draw from one budget.
func getLimiter() *rate.Limiter {
	limiterOnce.Do(initLimiter)
	return limiter
}

// waitForRateLimit blocks until a token is available or ctx is cancelled.
// It runs before every retry attempt, so each upstream try spends a token.
func waitForRateLimit(ctx context.Context, _ int) error {
	if err := getLimiter().Wait(ctx); err != nil {
		return err
	}
	metrics.UpstreamRateLimitWaits.Inc()
	return nil
}

// ResetLimiterForTest resets the rate limiter singleton for testing.
func ResetLimiterForTest() {
	limiterOnce = sync.Once{}
	limiter = nil
}
