package quote

import (
	"context"
	"errors"
	"time"
)

// ErrNoData indicates the upstream source returned no usable quote for a
// symbol. A quote without a price is treated the same way.
var ErrNoData = errors.New("no quote data for symbol")

// Quote is a point-in-time price snapshot for a single ticker symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Currency      string    `json:"currency,omitempty"`
	Change        float64   `json:"change,omitempty"`
	ChangePercent float64   `json:"change_percent,omitempty"`
	Volume        int64     `json:"volume,omitempty"`
	MarketCap     float64   `json:"market_cap,omitempty"`
	PreviousClose float64   `json:"previous_close,omitempty"`
	Open          float64   `json:"open,omitempty"`
	DayHigh       float64   `json:"day_high,omitempty"`
	DayLow        float64   `json:"day_low,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Clone returns an independent copy of the quote. Callers holding a clone
// never observe later mutation of the original.
func (q *Quote) Clone() *Quote {
	if q == nil {
		return nil
	}
	c := *q
	return &c
}

// Usable reports whether the quote carries a price worth serving or caching.
func (q *Quote) Usable() bool {
	return q != nil && q.Price > 0
}

// Fetcher retrieves a fresh quote from the upstream data source.
// Implementations must return ErrNoData (possibly wrapped) when the source
// has nothing usable for the symbol.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (*Quote, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, symbol string) (*Quote, error)

func (f FetcherFunc) Fetch(ctx context.Context, symbol string) (*Quote, error) {
	return f(ctx, symbol)
}
