package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/finquote/quotegate/internal/circuitbreaker"
	"github.com/finquote/quotegate/internal/config"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	// Keep retries and the rate limiter out of the way for unit tests.
	os.Setenv("HTTP_MAX_RETRIES", "1")
	os.Setenv("UPSTREAM_RPS", "1000")
	os.Setenv("UPSTREAM_BURST", "1000")
	t.Cleanup(func() {
		os.Unsetenv("HTTP_MAX_RETRIES")
		os.Unsetenv("UPSTREAM_RPS")
		os.Unsetenv("UPSTREAM_BURST")
		config.ResetForTest()
		ResetLimiterForTest()
	})
	config.ResetForTest()
	ResetLimiterForTest()

	return &Client{
		baseURL:   baseURL,
		userAgent: "quotegate-test/1.0",
		http:      &http.Client{Timeout: 2 * time.Second},
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             fmt.Sprintf("test_%s", t.Name()),
			FailureThreshold: 3,
			Timeout:          time.Hour,
		}),
	}
}

const appleBody = `{
	"quoteResponse": {
		"result": [{
			"symbol": "AAPL",
			"regularMarketPrice": 195.50,
			"currency": "USD",
			"regularMarketChange": 1.25,
			"regularMarketChangePercent": 0.64,
			"regularMarketVolume": 51234567,
			"marketCap": 3000000000000,
			"regularMarketPreviousClose": 194.25,
			"regularMarketOpen": 194.80,
			"regularMarketDayHigh": 196.10,
			"regularMarketDayLow": 194.10
		}],
		"error": null
	}
}`

func TestFetchParsesQuote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbols"); got != "AAPL" {
			t.Errorf("expected symbols=AAPL, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, appleBody)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	q, err := c.Fetch(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %q", q.Symbol)
	}
	if q.Price != 195.50 {
		t.Errorf("expected price 195.50, got %v", q.Price)
	}
	if q.Currency != "USD" {
		t.Errorf("expected USD, got %q", q.Currency)
	}
	if q.Volume != 51234567 {
		t.Errorf("expected volume 51234567, got %d", q.Volume)
	}
	if q.Timestamp.IsZero() {
		t.Error("expected capture timestamp to be set")
	}
}

func TestFetchNoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteResponse": {"result": [], "error": null}}`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.Fetch(context.Background(), "NOPE")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFetchMissingPriceIsNoData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteResponse": {"result": [{"symbol": "HALT", "currency": "USD"}], "error": null}}`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.Fetch(context.Background(), "HALT")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for priceless quote, got %v", err)
	}
}

func TestFetchUpstreamErrorTripsBreaker(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), "AAPL"); err == nil {
			t.Fatalf("fetch %d: expected error", i)
		}
	}

	// Breaker is open now; calls fail fast without hitting the server.
	_, err := c.Fetch(context.Background(), "AAPL")
	if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestFetchEmptySymbol(t *testing.T) {
	c := newTestClient(t, "http://unused.invalid")
	if _, err := c.Fetch(context.Background(), "  "); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := &Quote{Symbol: "AAPL", Price: 100}
	c := orig.Clone()
	c.Price = 200
	if orig.Price != 100 {
		t.Fatalf("clone mutated original: %v", orig.Price)
	}
}
