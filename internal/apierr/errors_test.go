package apierr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finquote/quotegate/internal/logger"
)

func TestErrorInterface(t *testing.T) {
	err := QuoteNotFound("AAPL")
	if err.Error() != "QUOTE_NOT_FOUND: No quote data found for symbol: AAPL" {
		t.Errorf("unexpected error string: %q", err.Error())
	}
	if err.Status() != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.Status())
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, AuthMissing())

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != ErrAuthMissing {
		t.Errorf("expected AUTH_MISSING, got %s", resp.Error.Code)
	}
}

func TestWriteErrorWithContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/quote/AAPL", nil)
	ctx := context.WithValue(req.Context(), logger.RequestIDKey, "req-42")
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	WriteErrorWithContext(rr, req, QuoteUpstreamFailed(""))

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.RequestID != "req-42" {
		t.Errorf("expected request ID propagated, got %q", resp.Error.RequestID)
	}
	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rr.Code)
	}
}

func TestValidationHelpers(t *testing.T) {
	err := ValidationInvalidValue("symbols", "")
	if err.Status() != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.Status())
	}
	if err.Details["field"] != "symbols" {
		t.Errorf("expected field detail, got %v", err.Details)
	}
}
