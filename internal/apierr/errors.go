package apierr

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/finquote/quotegate/internal/logger"
)

// ErrorCode represents a structured error code.
type ErrorCode string

// Error code constants organized by category
const (
	// AUTH_ - Authentication errors
	ErrAuthMissing ErrorCode = "AUTH_MISSING"
	ErrAuthInvalid ErrorCode = "AUTH_INVALID"

	// QUOTE_ - Quote lookup errors
	ErrQuoteNotFound       ErrorCode = "QUOTE_NOT_FOUND"
	ErrQuoteUpstreamFailed ErrorCode = "QUOTE_UPSTREAM_FAILED"

	// CACHE_ - Cache administration errors
	ErrCacheSymbolNotCached ErrorCode = "CACHE_SYMBOL_NOT_CACHED"

	// VALIDATION_ - Request validation errors
	ErrValidationMissingField ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrValidationInvalidValue ErrorCode = "VALIDATION_INVALID_VALUE"

	// RATE_LIMIT_ - Rate limiting errors
	ErrRateLimitGlobal ErrorCode = "RATE_LIMIT_GLOBAL"
	ErrRateLimitIP     ErrorCode = "RATE_LIMIT_IP"

	// SYSTEM_ - System and server errors
	ErrSystemInternal ErrorCode = "SYSTEM_INTERNAL"
)

// Error represents a structured API error.
type Error struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	status    int                    // HTTP status code (not serialized)
}

// ErrorResponse is the top-level error response wrapper.
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// New creates a new API error.
func New(code ErrorCode, message string, status int) *Error {
	return &Error{Code: code, Message: message, status: status}
}

// WithDetails adds details to the error.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// WithRequestID adds a request ID to the error.
func (e *Error) WithRequestID(requestID string) *Error {
	e.RequestID = requestID
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Status returns the HTTP status code.
func (e *Error) Status() int {
	return e.status
}

// WriteError writes a structured error response to the HTTP response writer.
func WriteError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

// WriteErrorWithContext writes a structured error response with the request ID from context.
func WriteErrorWithContext(w http.ResponseWriter, r *http.Request, err *Error) {
	if reqID := GetRequestID(r.Context()); reqID != "" {
		err = err.WithRequestID(reqID)
	}
	WriteError(w, err)
}

// GetRequestID extracts the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}

// Helper constructors for common errors

// AuthMissing creates a missing-API-key error.
func AuthMissing() *Error {
	return New(ErrAuthMissing, "Missing API key. Provide the X-API-Key header.", http.StatusUnauthorized)
}

// AuthInvalid creates an invalid-API-key error.
func AuthInvalid() *Error {
	return New(ErrAuthInvalid, "Invalid API key", http.StatusForbidden)
}

// QuoteNotFound creates a no-data-for-symbol error.
func QuoteNotFound(symbol string) *Error {
	return New(ErrQuoteNotFound, "No quote data found for symbol: "+symbol, http.StatusNotFound).
		WithDetails(map[string]interface{}{"symbol": symbol})
}

// QuoteUpstreamFailed creates an upstream-fetch-failure error.
func QuoteUpstreamFailed(message string) *Error {
	if message == "" {
		message = "Upstream quote source request failed"
	}
	return New(ErrQuoteUpstreamFailed, message, http.StatusBadGateway)
}

// CacheSymbolNotCached creates a not-in-cache error for admin lookups.
func CacheSymbolNotCached(symbol string) *Error {
	return New(ErrCacheSymbolNotCached, "Symbol not cached: "+symbol, http.StatusNotFound).
		WithDetails(map[string]interface{}{"symbol": symbol})
}

// ValidationMissingField creates a missing field error.
func ValidationMissingField(field string) *Error {
	return New(ErrValidationMissingField, "Missing required field: "+field, http.StatusBadRequest).
		WithDetails(map[string]interface{}{"field": field})
}

// ValidationInvalidValue creates an invalid value error.
func ValidationInvalidValue(field string, message string) *Error {
	if message == "" {
		message = "Invalid value for field: " + field
	}
	return New(ErrValidationInvalidValue, message, http.StatusBadRequest).
		WithDetails(map[string]interface{}{"field": field})
}

// RateLimitGlobal creates a global rate limit error.
func RateLimitGlobal() *Error {
	return New(ErrRateLimitGlobal, "Rate limit exceeded - too many requests globally", http.StatusTooManyRequests)
}

// RateLimitIP creates an IP rate limit error.
func RateLimitIP() *Error {
	return New(ErrRateLimitIP, "Rate limit exceeded - too many requests from your IP", http.StatusTooManyRequests)
}

// SystemInternal creates an internal server error.
func SystemInternal(message string) *Error {
	if message == "" {
		message = "Internal server error"
	}
	return New(ErrSystemInternal, message, http.StatusInternalServerError)
}
