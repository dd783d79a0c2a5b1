package middleware

import (
	"fmt"
	"strings"
)

// MaxSymbolLength bounds ticker symbols; the longest real-world symbols
// (class shares, indexes, currency pairs) stay well under this.
const MaxSymbolLength = 12

// ValidateSymbol checks that a ticker symbol is plausible before it is used
// as a cache key or sent upstream. Allowed: letters, digits, and the
// punctuation Yahoo-style symbols use (dot, dash, caret, equals).
func ValidateSymbol(symbol string) error {
	symbol = strings.TrimSpace(symbol)

	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > MaxSymbolLength {
		return fmt.Errorf("symbol too long (max %d characters)", MaxSymbolLength)
	}

	for _, c := range symbol {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '-' || c == '^' || c == '=':
		default:
			return fmt.Errorf("symbol contains invalid character %q", c)
		}
	}

	return nil
}

var validPeriods = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

var validIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true,
	"60m": true, "90m": true, "1h": true, "1d": true, "5d": true,
	"1wk": true, "1mo": true, "3mo": true,
}

// ValidatePeriod checks a history/dividend period against the ranges the
// upstream chart endpoint accepts.
func ValidatePeriod(period string) error {
	if !validPeriods[period] {
		return fmt.Errorf("invalid period %q", period)
	}
	return nil
}

// ValidateInterval checks a history interval against the granularities the
// upstream chart endpoint accepts.
func ValidateInterval(interval string) error {
	if !validIntervals[interval] {
		return fmt.Errorf("invalid interval %q", interval)
	}
	return nil
}
