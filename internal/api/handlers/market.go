package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/finquote/quotegate/internal/apierr"
	"github.com/finquote/quotegate/internal/cache"
	"github.com/finquote/quotegate/internal/logger"
	"github.com/finquote/quotegate/internal/middleware"
	"github.com/finquote/quotegate/internal/quote"
)

// MarketData is the slice of the upstream client these handlers need.
// Unlike quotes, none of this data goes through the price cache: history
// and profiles are fetched on demand and returned as-is.
type MarketData interface {
	History(ctx context.Context, symbol, period, interval string) ([]quote.Bar, error)
	CompanyInfo(ctx context.Context, symbol string) (*quote.CompanyInfo, error)
	Dividends(ctx context.Context, symbol, period string) ([]quote.Dividend, error)
}

// MarketHandler serves historical prices, company profiles and dividend
// history.
type MarketHandler struct {
	market MarketData
}

// NewMarketHandler creates a market data handler.
func NewMarketHandler(m MarketData) *MarketHandler {
	return &MarketHandler{market: m}
}

// writeMarketError maps upstream failures for non-quote market data.
func writeMarketError(w http.ResponseWriter, r *http.Request, symbol, what string, err error) {
	if errors.Is(err, quote.ErrNoData) {
		apierr.WriteErrorWithContext(w, r, apierr.New(apierr.ErrQuoteNotFound,
			"No "+what+" found for symbol: "+symbol, http.StatusNotFound).
			WithDetails(map[string]interface{}{"symbol": symbol}))
		return
	}
	logger.WithComponent("api").ErrorContext(r.Context(), "upstream fetch failed",
		"symbol", symbol, "kind", what, "error", err)
	apierr.WriteErrorWithContext(w, r, apierr.QuoteUpstreamFailed(""))
}

type historyRequest struct {
	Symbol   string `json:"symbol"`
	Period   string `json:"period"`
	Interval string `json:"interval"`
}

type historyBar struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *int64   `json:"volume"`
}

type historyResponse struct {
	Symbol   string       `json:"symbol"`
	Period   string       `json:"period"`
	Interval string       `json:"interval"`
	Data     []historyBar `json:"data"`
}

// GetHistory handles POST /history.
func (h *MarketHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("body", "Invalid JSON body"))
		return
	}
	if req.Period == "" {
		req.Period = "1mo"
	}
	if req.Interval == "" {
		req.Interval = "1d"
	}

	if err := middleware.ValidateSymbol(req.Symbol); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("symbol", err.Error()))
		return
	}
	if err := middleware.ValidatePeriod(req.Period); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("period", err.Error()))
		return
	}
	if err := middleware.ValidateInterval(req.Interval); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("interval", err.Error()))
		return
	}

	symbol := cache.Normalize(req.Symbol)
	bars, err := h.market.History(r.Context(), symbol, req.Period, req.Interval)
	if err != nil {
		writeMarketError(w, r, symbol, "historical data", err)
		return
	}

	resp := historyResponse{
		Symbol:   symbol,
		Period:   req.Period,
		Interval: req.Interval,
		Data:     make([]historyBar, 0, len(bars)),
	}
	for _, b := range bars {
		resp.Data = append(resp.Data, historyBar{
			Date:   b.Date.Format("2006-01-02 15:04:05"),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// GetCompanyInfo handles GET /info/{symbol}.
func (h *MarketHandler) GetCompanyInfo(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	if err := middleware.ValidateSymbol(symbol); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("symbol", err.Error()))
		return
	}
	symbol = cache.Normalize(symbol)

	info, err := h.market.CompanyInfo(r.Context(), symbol)
	if err != nil {
		writeMarketError(w, r, symbol, "company info", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(info)
}

// dividendMax caps the dividend history returned for long-lived payers.
const dividendMax = 100

type dividendEntry struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// GetDividends handles GET /dividends/{symbol}?period=1y.
func (h *MarketHandler) GetDividends(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1y"
	}

	if err := middleware.ValidateSymbol(symbol); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("symbol", err.Error()))
		return
	}
	if err := middleware.ValidatePeriod(period); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("period", err.Error()))
		return
	}
	symbol = cache.Normalize(symbol)

	divs, err := h.market.Dividends(r.Context(), symbol, period)
	if err != nil {
		writeMarketError(w, r, symbol, "dividend data", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if len(divs) == 0 {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol":    symbol,
			"period":    period,
			"dividends": []dividendEntry{},
			"message":   "No dividend data available",
		})
		return
	}

	if len(divs) > dividendMax {
		divs = divs[len(divs)-dividendMax:]
	}
	entries := make([]dividendEntry, 0, len(divs))
	for _, d := range divs {
		entries = append(entries, dividendEntry{
			Date:   d.Date.Format("2006-01-02"),
			Amount: d.Amount,
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"symbol":    symbol,
		"dividends": entries,
	})
}
