package config

import (
	"os"
	"strings"
	"time"

	"github.com/finquote/quotegate/internal/utils"
)

// Config holds application configuration derived from environment variables.
// It is loaded once at startup and immutable afterwards.
type Config struct {
	AppName    string
	AppVersion string
	Port       int

	// API key auth: comma-separated list of valid keys for the X-API-Key header.
	APIKeys []string

	// Cache settings
	CacheEnabled         bool
	CacheTTLDays         int
	CacheRefreshInterval time.Duration
	CacheFetchDelay      time.Duration

	// Upstream quote source
	QuoteAPIBaseURL string
	UserAgent       string
	UpstreamRPS     float64 // requests per second to the quote source
	UpstreamBurst   int
	HTTPMaxRetries  int
	HTTPRetryBase   time.Duration
	HTTPTimeout     time.Duration
	LogHTTPRetries  bool

	// Request limits
	MaxBatchSymbols int

	// Security settings
	RateLimitGlobal      float64 // requests per second globally
	RateLimitGlobalBurst int
	RateLimitPerIP       float64 // requests per second per IP
	RateLimitPerIPBurst  int
	EnableRateLimit      bool
	CORSAllowedOrigins   []string

	// Observability settings
	LogLevel          string
	OTELEnabled       bool
	OTELEndpoint      string
	OTELSampleRate    float64
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}

	ua := strings.TrimSpace(os.Getenv("QUOTE_USER_AGENT"))
	if ua == "" {
		ua = "quotegate/1.0"
	}

	cached = &Config{
		AppName:    "quotegate",
		AppVersion: appVersion(),
		Port:       utils.GetEnvAsInt("PORT", 8080),

		APIKeys: utils.GetEnvAsList("API_KEYS", nil),

		CacheEnabled:         utils.GetEnvAsBool("CACHE_ENABLED", true),
		CacheTTLDays:         utils.GetEnvAsInt("CACHE_TTL_DAYS", 7),
		CacheRefreshInterval: time.Duration(utils.GetEnvAsInt("CACHE_REFRESH_INTERVAL_MINUTES", 30)) * time.Minute,
		CacheFetchDelay:      time.Duration(utils.GetEnvAsInt("CACHE_FETCH_DELAY_MS", 500)) * time.Millisecond,

		QuoteAPIBaseURL: strings.TrimSpace(os.Getenv("QUOTE_API_BASE_URL")),
		UserAgent:       ua,
		UpstreamRPS:     utils.GetEnvAsFloat("UPSTREAM_RPS", 2.0),
		UpstreamBurst:   utils.GetEnvAsInt("UPSTREAM_BURST", 1),
		HTTPMaxRetries:  utils.GetEnvAsInt("HTTP_MAX_RETRIES", 3),
		HTTPRetryBase:   time.Duration(utils.GetEnvAsInt("HTTP_RETRY_BASE_MS", 300)) * time.Millisecond,
		HTTPTimeout:     time.Duration(utils.GetEnvAsInt("HTTP_TIMEOUT_MS", 15000)) * time.Millisecond,
		LogHTTPRetries:  utils.GetEnvAsBool("LOG_HTTP_RETRIES", false),

		MaxBatchSymbols: utils.GetEnvAsInt("MAX_BATCH_SYMBOLS", 50),

		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", 100.0),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 200),
		RateLimitPerIP:       utils.GetEnvAsFloat("RATE_LIMIT_PER_IP", 10.0),
		RateLimitPerIPBurst:  utils.GetEnvAsInt("RATE_LIMIT_PER_IP_BURST", 20),
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),
		CORSAllowedOrigins:   utils.GetEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		LogLevel:          strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		OTELEnabled:       utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTELSampleRate:    utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment: strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		SentryRelease:     strings.TrimSpace(os.Getenv("SENTRY_RELEASE")),
	}

	if cached.QuoteAPIBaseURL == "" {
		cached.QuoteAPIBaseURL = "https://query1.finance.yahoo.com"
	}
	if cached.LogLevel == "" {
		cached.LogLevel = "info"
	}
	if cached.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			cached.SentryEnvironment = env
		} else {
			cached.SentryEnvironment = "development"
		}
	}

	return cached
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }

// HasAPIKey reports whether key is one of the configured API keys.
func (c *Config) HasAPIKey(key string) bool {
	for _, k := range c.APIKeys {
		if k == key {
			return true
		}
	}
	return false
}

func appVersion() string {
	if v := os.Getenv("SERVICE_VERSION"); v != "" {
		return v
	}
	return "dev"
}
