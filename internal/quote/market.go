package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/finquote/quotegate/internal/httpx"
	"github.com/finquote/quotegate/internal/logger"
)

// Bar is one interval of historical price data. Fields the source has no
// value for are nil, not zero; a zero would read as a real price.
type Bar struct {
	Date   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *int64
}

// CompanyInfo is a static profile of the company behind a symbol.
type CompanyInfo struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name,omitempty"`
	Sector      string  `json:"sector,omitempty"`
	Industry    string  `json:"industry,omitempty"`
	Website     string  `json:"website,omitempty"`
	Description string  `json:"description,omitempty"`
	Country     string  `json:"country,omitempty"`
	Employees   int64   `json:"employees,omitempty"`
	MarketCap   float64 `json:"market_cap,omitempty"`
}

// Dividend is a single historical dividend payment.
type Dividend struct {
	Date   time.Time
	Amount float64
}

// chartEnvelope mirrors the v8 chart endpoint response shape. The same
// endpoint serves price history and, with events=div, dividend history.
type chartEnvelope struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error json.RawMessage `json:"error"`
	} `json:"chart"`
}

// summaryEnvelope mirrors the v10 quoteSummary endpoint response shape.
type summaryEnvelope struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector              string `json:"sector"`
				Industry            string `json:"industry"`
				Website             string `json:"website"`
				LongBusinessSummary string `json:"longBusinessSummary"`
				Country             string `json:"country"`
				FullTimeEmployees   int64  `json:"fullTimeEmployees"`
			} `json:"assetProfile"`
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
				MarketCap struct {
					Raw float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"price"`
		} `json:"result"`
		Error json.RawMessage `json:"error"`
	} `json:"quoteSummary"`
}

// getJSON runs one breaker-guarded, rate-limited, retried GET against the
// upstream source and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	return c.breaker.Call(func() error {
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
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("upstream returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

// History fetches historical bars for symbol over the given period at the
// given interval. Returns ErrNoData when the source has no bars.
func (c *Client) History(ctx context.Context, symbol, period, interval string) ([]Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNoData
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(period), url.QueryEscape(interval))

	var env chartEnvelope
	if err := c.getJSON(ctx, endpoint, &env); err != nil {
		logger.WarnContext(ctx, "history fetch failed", "symbol", symbol, "error", err)
		return nil, err
	}

	results := env.Chart.Result
	if len(results) == 0 || len(results[0].Timestamp) == 0 || len(results[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	ts := results[0].Timestamp
	q := results[0].Indicators.Quote[0]

	bars := make([]Bar, 0, len(ts))
	for i, sec := range ts {
		bars = append(bars, Bar{
			Date:   time.Unix(sec, 0).UTC(),
			Open:   at(q.Open, i),
			High:   at(q.High, i),
			Low:    at(q.Low, i),
			Close:  at(q.Close, i),
			Volume: at(q.Volume, i),
		})
	}
	return bars, nil
}

func at[T any](s []*T, i int) *T {
	if i < len(s) {
		return s[i]
	}
	return nil
}

// CompanyInfo fetches the company profile for symbol. Returns ErrNoData
// when the source knows nothing about it.
func (c *Client) CompanyInfo(ctx context.Context, symbol string) (*CompanyInfo, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNoData
	}

	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile%%2Cprice",
		c.baseURL, url.PathEscape(symbol))

	var env summaryEnvelope
	if err := c.getJSON(ctx, endpoint, &env); err != nil {
		logger.WarnContext(ctx, "company info fetch failed", "symbol", symbol, "error", err)
		return nil, err
	}

	results := env.QuoteSummary.Result
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	r := results[0]
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}

	info := &CompanyInfo{
		Symbol:      symbol,
		Name:        name,
		Sector:      r.AssetProfile.Sector,
		Industry:    r.AssetProfile.Industry,
		Website:     r.AssetProfile.Website,
		Description: r.AssetProfile.LongBusinessSummary,
		Country:     r.AssetProfile.Country,
		Employees:   r.AssetProfile.FullTimeEmployees,
		MarketCap:   r.Price.MarketCap.Raw,
	}
	if info.Name == "" && info.Sector == "" && info.Description == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return info, nil
}

// Dividends fetches the dividend history for symbol over period, sorted by
// date ascending. A symbol that pays no dividends yields an empty slice,
// not an error.
func (c *Client) Dividends(ctx context.Context, symbol, period string) ([]Dividend, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNoData
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d&events=div",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(period))

	var env chartEnvelope
	if err := c.getJSON(ctx, endpoint, &env); err != nil {
		logger.WarnContext(ctx, "dividends fetch failed", "symbol", symbol, "error", err)
		return nil, err
	}

	results := env.Chart.Result
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	divs := make([]Dividend, 0, len(results[0].Events.Dividends))
	for _, d := range results[0].Events.Dividends {
		divs = append(divs, Dividend{
			Date:   time.Unix(d.Date, 0).UTC(),
			Amount: d.Amount,
		})
	}
	sort.Slice(divs, func(i, j int) bool { return divs[i].Date.Before(divs[j].Date) })
	return divs, nil
}
