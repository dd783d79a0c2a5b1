package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(1000, 1000, 1, 2)
	defer rl.Stop()

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Burst of 2 allowed, third request from the same IP is rejected.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/quote/AAPL", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}

	req := httptest.NewRequest("GET", "/quote/AAPL", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}

	// A different IP still gets through.
	req = httptest.NewRequest("GET", "/quote/AAPL", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected other IP to pass, got %d", rr.Code)
	}
}

func TestRateLimiterGlobal(t *testing.T) {
	rl := NewRateLimiter(1, 1, 1000, 1000)
	defer rl.Stop()

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/quote/AAPL", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected first request through, got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/quote/AAPL", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected global 429, got %d", rr.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*http.Request)
		expect string
	}{
		{"x-forwarded-for single", func(r *http.Request) {
			r.Header.Set("X-Forwarded-For", "1.2.3.4")
		}, "1.2.3.4"},
		{"x-forwarded-for multiple", func(r *http.Request) {
			r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
		}, "1.2.3.4"},
		{"x-real-ip", func(r *http.Request) {
			r.Header.Set("X-Real-IP", "9.8.7.6")
		}, "9.8.7.6"},
		{"remote addr", func(r *http.Request) {
			r.RemoteAddr = "5.5.5.5:9999"
		}, "5.5.5.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			tt.setup(req)
			if got := clientIP(req); got != tt.expect {
				t.Errorf("clientIP() = %q, want %q", got, tt.expect)
			}
		})
	}
}
