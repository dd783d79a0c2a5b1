package middleware

import (
	"net/http"

	"github.com/finquote/quotegate/internal/apierr"
	"github.com/finquote/quotegate/internal/config"
	"github.com/finquote/quotegate/internal/logger"
	"github.com/finquote/quotegate/internal/secrets"
)

// APIKeyHeader is the header clients authenticate with.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey returns a middleware that rejects requests without a valid
// API key. A missing key is a 401; a key not in the configured set is a 403.
func RequireAPIKey(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				apierr.WriteErrorWithContext(w, r, apierr.AuthMissing())
				return
			}
			if !cfg.HasAPIKey(key) {
				logger.WarnContext(r.Context(), "rejected invalid API key",
					"key", secrets.Mask(key),
					"path", r.URL.Path,
				)
				apierr.WriteErrorWithContext(w, r, apierr.AuthInvalid())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
