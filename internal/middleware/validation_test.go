package middleware

import "testing"

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		symbol  string
		wantErr bool
	}{
		{"AAPL", false},
		{"aapl", false},
		{"BRK-B", false},
		{"BF.B", false},
		{"^GSPC", false},
		{"EURUSD=X", false},
		{" MSFT ", false},
		{"", true},
		{"   ", true},
		{"WAYTOOLONGSYMBOL", true},
		{"AA PL", true},
		{"AAPL;DROP", true},
		{"../etc", true},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			err := ValidateSymbol(tt.symbol)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSymbol(%q) error = %v, wantErr %v", tt.symbol, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePeriod(t *testing.T) {
	for _, p := range []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"} {
		if err := ValidatePeriod(p); err != nil {
			t.Errorf("ValidatePeriod(%q) unexpected error: %v", p, err)
		}
	}
	for _, p := range []string{"", "7d", "1Y", "forever"} {
		if err := ValidatePeriod(p); err == nil {
			t.Errorf("ValidatePeriod(%q) expected error", p)
		}
	}
}

func TestValidateInterval(t *testing.T) {
	for _, iv := range []string{"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h", "1d", "5d", "1wk", "1mo", "3mo"} {
		if err := ValidateInterval(iv); err != nil {
			t.Errorf("ValidateInterval(%q) unexpected error: %v", iv, err)
		}
	}
	for _, iv := range []string{"", "42s", "2h", "1y"} {
		if err := ValidateInterval(iv); err == nil {
			t.Errorf("ValidateInterval(%q) expected error", iv)
		}
	}
}
