package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/finquote/quotegate/internal/api/handlers"
	"github.com/finquote/quotegate/internal/cache"
	"github.com/finquote/quotegate/internal/config"
	"github.com/finquote/quotegate/internal/middleware"
	"github.com/finquote/quotegate/internal/quote"
)

// NewRouter assembles the full HTTP surface: public endpoints, API-key
// protected quote endpoints, and the cache admin endpoints.
func NewRouter(cfg *config.Config, pc *cache.PriceCache, fetcher quote.Fetcher, market handlers.MarketData) http.Handler {
	r := mux.NewRouter()

	// Public
	r.HandleFunc("/", handlers.Root(cfg, pc)).Methods("GET")
	r.HandleFunc("/health", handlers.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	auth := middleware.RequireAPIKey(cfg)

	// Quotes
	qh := handlers.NewQuoteHandler(pc, fetcher, cfg.MaxBatchSymbols)
	r.Handle("/quote/{symbol}", auth(http.HandlerFunc(qh.GetQuote))).Methods("GET")
	r.Handle("/quotes", auth(http.HandlerFunc(qh.GetQuotes))).Methods("GET")

	// Market data (uncached pass-through to the upstream source)
	mh := handlers.NewMarketHandler(market)
	r.Handle("/history", auth(http.HandlerFunc(mh.GetHistory))).Methods("POST")
	r.Handle("/info/{symbol}", auth(http.HandlerFunc(mh.GetCompanyInfo))).Methods("GET")
	r.Handle("/dividends/{symbol}", auth(http.HandlerFunc(mh.GetDividends))).Methods("GET")

	// Cache administration
	ah := handlers.NewCacheAdminHandler(pc, fetcher)
	admin := r.PathPrefix("/admin/cache").Subrouter()
	admin.Use(auth)
	admin.HandleFunc("/stats", ah.GetStats).Methods("GET")
	admin.HandleFunc("/symbols/{symbol}", ah.GetSymbol).Methods("GET")
	admin.HandleFunc("/symbols/{symbol}", ah.RemoveSymbol).Methods("DELETE")
	admin.HandleFunc("/clear", ah.ClearCache).Methods("POST")
	admin.HandleFunc("/refresh", ah.TriggerRefresh).Methods("POST")

	return Chain(cfg, r)
}

// Chain wraps a handler in the standard middleware stack. Order matters:
// the request ID must exist before anything logs, and recovery sits
// innermost so panics are reported with full request context.
func Chain(cfg *config.Config, h http.Handler) http.Handler {
	h = middleware.RecoverWithSentry(h)
	if cfg.EnableRateLimit {
		rl := middleware.NewRateLimiter(
			cfg.RateLimitGlobal, cfg.RateLimitGlobalBurst,
			cfg.RateLimitPerIP, cfg.RateLimitPerIPBurst,
		)
		h = rl.Limit(h)
	}
	h = middleware.Gzip(h)
	h = middleware.CORS(&middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.APIKeyHeader},
		MaxAge:         300,
	})(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.RequestID(h)
	return h
}
