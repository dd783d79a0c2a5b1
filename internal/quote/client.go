package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/finquote/quotegate/internal/circuitbreaker"
	"github.com/finquote/quotegate/internal/config"
	"github.com/finquote/quotegate/internal/httpx"
	"github.com/finquote/quotegate/internal/logger"
)

// Client fetches quotes from a Yahoo-Finance-style quote endpoint. Every
// call goes through the shared upstream rate limiter and a circuit breaker,
// so a failing source is backed off instead of hammered.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	breaker   *circuitbreaker.CircuitBreaker
}

// NewClient builds a quote client from config.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.QuoteAPIBaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.HTTPTimeout},
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "quote_upstream",
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          60 * time.Second,
		}),
	}
}

// yahooEnvelope mirrors the v7 quote endpoint response shape.
type yahooEnvelope struct {
	QuoteResponse struct {
		Result []yahooQuote    `json:"result"`
		Error  json.RawMessage `json:"error"`
	} `json:"quoteResponse"`
}

type yahooQuote struct {
	Symbol                     string  `json:"symbol"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	Currency                   string  `json:"currency"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
	MarketCap                  float64 `json:"marketCap"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
}

// Fetch retrieves a fresh quote for symbol. It returns ErrNoData when the
// source answers but has nothing usable; transport and status failures trip
// the circuit breaker.
func (c *Client) Fetch(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNoData
	}

	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(symbol))

	var env yahooEnvelope
	err := c.breaker.Call(func() error {
		resp, err := httpx.DoWithRetry(ctx, c.http, func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("User-Agent", c.userAgent)
			req.Header.Set("Accept", "application/json")
			return req, nil
		}, waitForRateLimit)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			// Drain so the connection can be reused.
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("upstream returned status %d for %s", resp.StatusCode, symbol)
		}
		return json.NewDecoder(resp.Body).Decode(&env)
	})
	if err != nil {
		logger.WarnContext(ctx, "upstream fetch failed", "symbol", symbol, "error", err)
		return nil, err
	}

	results := env.QuoteResponse.Result
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	q := toQuote(results[0], symbol)
	if !q.Usable() {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return q, nil
}

func toQuote(y yahooQuote, fallbackSymbol string) *Quote {
	symbol := y.Symbol
	if symbol == "" {
		symbol = fallbackSymbol
	}
	return &Quote{
		Symbol:        symbol,
		Price:         y.RegularMarketPrice,
		Currency:      y.Currency,
		Change:        y.RegularMarketChange,
		ChangePercent: y.RegularMarketChangePercent,
		Volume:        y.RegularMarketVolume,
		MarketCap:     y.MarketCap,
		PreviousClose: y.RegularMarketPreviousClose,
		Open:          y.RegularMarketOpen,
		DayHigh:       y.RegularMarketDayHigh,
		DayLow:        y.RegularMarketDayLow,
		Timestamp:     time.Now(),
	}
}
