package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/finquote/quotegate/internal/apierr"
	"github.com/finquote/quotegate/internal/cache"
	"github.com/finquote/quotegate/internal/quote"
)

// CacheAdminHandler exposes cache inspection and maintenance endpoints.
type CacheAdminHandler struct {
	cache   *cache.PriceCache
	fetcher quote.Fetcher
}

// NewCacheAdminHandler creates a cache admin handler.
func NewCacheAdminHandler(pc *cache.PriceCache, f quote.Fetcher) *CacheAdminHandler {
	return &CacheAdminHandler{cache: pc, fetcher: f}
}

// GetStats handles GET /admin/cache/stats.
func (h *CacheAdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(h.cache.Stats())
}

// GetSymbol handles GET /admin/cache/symbols/{symbol}. It reads cache state
// without extending the symbol's retention.
func (h *CacheAdminHandler) GetSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	info, ok := h.cache.SymbolInfo(symbol)
	if !ok {
		apierr.WriteErrorWithContext(w, r, apierr.CacheSymbolNotCached(cache.Normalize(symbol)))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(info)
}

// RemoveSymbol handles DELETE /admin/cache/symbols/{symbol}.
func (h *CacheAdminHandler) RemoveSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := cache.Normalize(mux.Vars(r)["symbol"])

	if !h.cache.Remove(symbol) {
		apierr.WriteErrorWithContext(w, r, apierr.CacheSymbolNotCached(symbol))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"symbol": symbol,
	})
}

// ClearCache handles POST /admin/cache/clear. Counters survive so hit-rate
// history is not lost.
func (h *CacheAdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	removed := h.cache.Clear()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"removed": removed,
	})
}

// TriggerRefresh handles POST /admin/cache/refresh. The refresh runs
// synchronously; large caches take a while because fetches are paced.
func (h *CacheAdminHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	before := h.cache.Stats()
	h.cache.RefreshAll(r.Context(), h.fetcher)
	after := h.cache.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"refreshed": after.Refreshes - before.Refreshes,
		"errors":    after.RefreshErrors - before.RefreshErrors,
		"symbols":   after.CachedSymbols,
	})
}
