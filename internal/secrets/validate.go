package secrets

import (
	"fmt"
	"strings"
)

// MinKeyLength is the shortest API key accepted at startup. Shorter keys
// are almost certainly placeholders left over from an example env file.
const MinKeyLength = 16

// ValidationError reports API keys rejected at startup.
type ValidationError struct {
	Empty    int
	TooShort []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if e.Empty > 0 {
		parts = append(parts, fmt.Sprintf("%d empty API key(s) configured", e.Empty))
	}
	if len(e.TooShort) > 0 {
		parts = append(parts, fmt.Sprintf("API key(s) shorter than %d characters: %s", MinKeyLength, strings.Join(e.TooShort, ", ")))
	}
	return strings.Join(parts, "; ")
}

// ValidateKeys checks that every configured API key is usable. Keys that
// fail validation are reported masked so the error is safe to log.
func ValidateKeys(keys []string) error {
	var empty int
	var short []string

	for _, key := range keys {
		switch {
		case key == "":
			empty++
		case len(key) < MinKeyLength:
			short = append(short, Mask(key))
		}
	}

	if empty > 0 || len(short) > 0 {
		return &ValidationError{Empty: empty, TooShort: short}
	}
	return nil
}
