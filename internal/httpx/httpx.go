package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/finquote/quotegate/internal/config"
	"github.com/finquote/quotegate/internal/logger"
	"github.com/finquote/quotegate/internal/metrics"
)

// PreAttempt lets callers run logic (e.g. rate limiting) before each try;
// returning an error aborts the remaining attempts.
type PreAttempt func(ctx context.Context, attempt int) error

// DoWithRetry wraps an HTTP request with lightweight retries, honoring
// Retry-After on 429/5xx and backing off with jitter otherwise. The request
// is rebuilt for every attempt so bodies and contexts stay fresh.
func DoWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error), pre PreAttempt) (*http.Response, error) {
	cfg := config.Load()
	maxAttempts := cfg.HTTPMaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	baseDelay := cfg.HTTPRetryBase

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if pre != nil {
			if err := pre(ctx, attempt); err != nil {
				return nil, err
			}
		}
		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			metrics.UpstreamHTTPRequests.WithLabelValues("error").Inc()
			if attempt == maxAttempts || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if cfg.LogHTTPRetries {
					logger.Warn("httpx: giving up", "attempt", attempt, "url", req.URL.String(), "error", err)
				}
				return nil, err
			}
			metrics.UpstreamHTTPRetries.Inc()
		} else {
			// Success unless 429/5xx.
			if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
				metrics.UpstreamHTTPRequests.WithLabelValues("success").Inc()
				if cfg.LogHTTPRetries && attempt > 1 {
					logger.Info("httpx: succeeded after retry", "attempt", attempt, "url", req.URL.String(), "status", resp.StatusCode)
				}
				return resp, nil
			}

			metrics.UpstreamHTTPRequests.WithLabelValues("retry").Inc()
			if attempt == maxAttempts {
				if cfg.LogHTTPRetries {
					logger.Warn("httpx: giving up", "attempt", attempt, "url", req.URL.String(), "status", resp.StatusCode)
				}
				return resp, nil
			}

			if wait, ok := retryAfter(resp); ok {
				resp.Body.Close()
				metrics.UpstreamRetryAfterWaits.Observe(wait.Seconds())
				if cfg.LogHTTPRetries {
					logger.Info("httpx: honoring Retry-After", "attempt", attempt, "wait", wait.String(), "url", req.URL.String())
				}
				if err := sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}

			resp.Body.Close()
			metrics.UpstreamHTTPRetries.Inc()
		}

		// backoff with jitter
		jitter := time.Duration(rand.Intn(200)) * time.Millisecond
		delay := baseDelay*time.Duration(attempt) + jitter
		if cfg.LogHTTPRetries {
			logger.Info("httpx: backing off", "attempt", attempt, "delay", delay.String())
		}
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, errors.New("exhausted retries")
}

// retryAfter parses the Retry-After header as seconds or an HTTP date.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(ra); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(ra); err == nil {
		if delta := time.Until(t); delta > 0 {
			return delta, true
		}
	}
	return 0, false
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
