package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/finquote/quotegate/internal/apierr"
	"github.com/finquote/quotegate/internal/cache"
	"github.com/finquote/quotegate/internal/logger"
	"github.com/finquote/quotegate/internal/middleware"
	"github.com/finquote/quotegate/internal/quote"
)

// QuoteHandler serves quote lookups through the price cache. Every lookup,
// single or batch, takes the same path: cache first, upstream on miss,
// successful fetches written back to the cache.
type QuoteHandler struct {
	cache    *cache.PriceCache
	fetcher  quote.Fetcher
	maxBatch int
}

// NewQuoteHandler creates a quote handler.
func NewQuoteHandler(pc *cache.PriceCache, f quote.Fetcher, maxBatch int) *QuoteHandler {
	return &QuoteHandler{cache: pc, fetcher: f, maxBatch: maxBatch}
}

// lookup resolves one symbol through the cache-then-upstream path.
func (h *QuoteHandler) lookup(ctx context.Context, symbol string) (*quote.Quote, *apierr.Error) {
	if err := middleware.ValidateSymbol(symbol); err != nil {
		return nil, apierr.ValidationInvalidValue("symbol", err.Error())
	}
	symbol = cache.Normalize(symbol)

	if q, ok := h.cache.Get(symbol); ok {
		return q, nil
	}

	q, err := h.fetcher.Fetch(ctx, symbol)
	if err != nil {
		if errors.Is(err, quote.ErrNoData) {
			return nil, apierr.QuoteNotFound(symbol)
		}
		logger.WithComponent("api").ErrorContext(ctx, "upstream fetch failed", "symbol", symbol, "error", err)
		return nil, apierr.QuoteUpstreamFailed("")
	}

	h.cache.Set(symbol, q)
	return q, nil
}

// GetQuote handles GET /quote/{symbol}.
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	q, apiErr := h.lookup(r.Context(), symbol)
	if apiErr != nil {
		apierr.WriteErrorWithContext(w, r, apiErr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(q)
}

// batchEntry is one element of the batch response. Failed symbols carry an
// error message instead of quote data so one bad ticker never fails the
// whole request.
type batchEntry struct {
	Symbol string       `json:"symbol"`
	Quote  *quote.Quote `json:"quote,omitempty"`
	Error  string       `json:"error,omitempty"`
}

type batchResponse struct {
	Quotes []batchEntry `json:"quotes"`
	Count  int          `json:"count"`
}

// GetQuotes handles GET /quotes?symbols=A,B,C.
func (h *QuoteHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if strings.TrimSpace(raw) == "" {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationMissingField("symbols"))
		return
	}

	var symbols []string
	seen := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = cache.Normalize(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}

	if len(symbols) == 0 {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationMissingField("symbols"))
		return
	}
	if len(symbols) > h.maxBatch {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("symbols",
			"Too many symbols requested").WithDetails(map[string]interface{}{
			"max":       h.maxBatch,
			"requested": len(symbols),
		}))
		return
	}

	resp := batchResponse{Quotes: make([]batchEntry, 0, len(symbols))}
	for _, symbol := range symbols {
		q, apiErr := h.lookup(r.Context(), symbol)
		if apiErr != nil {
			resp.Quotes = append(resp.Quotes, batchEntry{Symbol: symbol, Error: apiErr.Message})
			continue
		}
		resp.Quotes = append(resp.Quotes, batchEntry{Symbol: symbol, Quote: q})
	}
	resp.Count = len(resp.Quotes)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
