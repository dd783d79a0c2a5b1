package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/finquote/quotegate/internal/apierr"
	"github.com/finquote/quotegate/internal/config"
)

func TestRequireAPIKey(t *testing.T) {
	os.Setenv("API_KEYS", "good-key,other-key")
	t.Cleanup(func() {
		os.Unsetenv("API_KEYS")
		config.ResetForTest()
	})
	config.ResetForTest()
	cfg := config.Load()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAPIKey(cfg)(ok)

	tests := []struct {
		name           string
		key            string
		expectedStatus int
		expectedCode   apierr.ErrorCode
	}{
		{"valid key", "good-key", http.StatusOK, ""},
		{"second valid key", "other-key", http.StatusOK, ""},
		{"missing key", "", http.StatusUnauthorized, apierr.ErrAuthMissing},
		{"wrong key", "bad-key", http.StatusForbidden, apierr.ErrAuthInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/quote/AAPL", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if tt.expectedCode != "" {
				var resp apierr.ErrorResponse
				if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if resp.Error.Code != tt.expectedCode {
					t.Errorf("expected code %s, got %s", tt.expectedCode, resp.Error.Code)
				}
			}
		})
	}
}
