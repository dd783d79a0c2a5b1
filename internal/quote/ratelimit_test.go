package quote

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/finquote/quotegate/internal/config"
	"github.com/finquote/quotegate/internal/httpx"
)

// waitForRateLimit is handed to the retry helper as its pre-attempt hook.
var _ httpx.PreAttempt = waitForRateLimit

func setLimiterEnv(t *testing.T, rps, burst string) {
	t.Helper()
	os.Setenv("UPSTREAM_RPS", rps)
	os.Setenv("UPSTREAM_BURST", burst)
	t.Cleanup(func() {
		os.Unsetenv("UPSTREAM_RPS")
		os.Unsetenv("UPSTREAM_BURST")
		config.ResetForTest()
		ResetLimiterForTest()
	})
	config.ResetForTest()
	ResetLimiterForTest()
}

func TestWaitForRateLimitAllowsWithinBudget(t *testing.T) {
	setLimiterEnv(t, "1000", "1000")

	for attempt := 1; attempt <= 3; attempt++ {
		if err := waitForRateLimit(context.Background(), attempt); err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", attempt, err)
		}
	}
}

func TestWaitForRateLimitHonorsCancellation(t *testing.T) {
	setLimiterEnv(t, "0.001", "1")

	// Drain the single burst token so the next wait must block.
	if err := waitForRateLimit(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error draining burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := waitForRateLimit(ctx, 2); err == nil {
		t.Fatal("expected error once the budget is exhausted and ctx expires")
	}
}
