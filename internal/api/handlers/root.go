package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/finquote/quotegate/internal/cache"
	"github.com/finquote/quotegate/internal/config"
)

// Root returns basic service identification so operators can tell at a
// glance what is deployed and whether caching is on.
func Root(cfg *config.Config, pc *cache.PriceCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"service":       cfg.AppName,
			"version":       cfg.AppVersion,
			"status":        "ok",
			"cache_enabled": pc.Enabled(),
		})
	}
}
