package format

import (
	"strings"
	"testing"
	"time"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		code  string
		want  string
	}{
		{"usd", 1234.5, "USD", "$1,234.50"},
		{"eur", 1234.567, "EUR", "€1,234.57"},
		{"uzs falls back to eur", 10, "UZS", "€10.00"},
		{"unknown falls back to eur", 0.5, "GBP", "€0.50"},
		{"lowercase usd is not usd", 1, "usd", "€1.00"},
		{"negative usd", -1, "USD", "-$1.00"},
		{"millions", 1234567.891, "USD", "$1,234,567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.value, tt.code); got != tt.want {
				t.Errorf("Currency(%v, %q) = %q, want %q", tt.value, tt.code, got, tt.want)
			}
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		want     string
	}{
		{1234.5678, 2, "1,234.57"},
		{1234.4, 0, "1,234"},
		{999, 0, "999"},
		{1000000, 1, "1,000,000.0"},
		{0.25, 3, "0.250"},
		{12, -3, "12"},
	}

	for _, tt := range tests {
		if got := Number(tt.value, tt.decimals); got != tt.want {
			t.Errorf("Number(%v, %d) = %q, want %q", tt.value, tt.decimals, got, tt.want)
		}
	}

	if got := NumberDefault(1234.4); got != "1,234" {
		t.Errorf("NumberDefault(1234.4) = %q, want %q", got, "1,234")
	}
}

func TestNumber_BeyondInt64(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		want     string
	}{
		{1e20, 0, "100,000,000,000,000,000,000"},
		{-1e20, 0, "-100,000,000,000,000,000,000"},
		{1e15, 2, "1,000,000,000,000,000.00"},
		{9.5e18, 0, "9,500,000,000,000,000,000"},
		{999999999999999, 0, "999,999,999,999,999"},
	}
	for _, tt := range tests {
		if got := Number(tt.value, tt.decimals); got != tt.want {
			t.Errorf("Number(%v, %d) = %q, want %q", tt.value, tt.decimals, got, tt.want)
		}
	}

	if got, want := Currency(1e19, USD), "$10,000,000,000,000,000,000.00"; got != want {
		t.Errorf("Currency(1e19, USD) = %q, want %q", got, want)
	}
	if got, want := Currency(-1e19, EUR), "-€10,000,000,000,000,000,000.00"; got != want {
		t.Errorf("Currency(-1e19, EUR) = %q, want %q", got, want)
	}
}

func TestNumber_FractionDigits(t *testing.T) {
	values := []float64{0, 1, 3.14159, 42.5, 1234.5678, 98765.4321, 0.001}

	for _, v := range values {
		for d := 0; d <= 6; d++ {
			got := Number(v, d)
			idx := strings.LastIndex(got, ".")
			if d == 0 {
				if idx != -1 {
					t.Errorf("Number(%v, 0) = %q, want no decimal separator", v, got)
				}
				continue
			}
			if idx == -1 {
				t.Errorf("Number(%v, %d) = %q, missing decimal separator", v, d, got)
				continue
			}
			if frac := got[idx+1:]; len(frac) != d {
				t.Errorf("Number(%v, %d) = %q, got %d fraction digits", v, d, got, len(frac))
			}
		}
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		want     string
	}{
		{0.1234, 1, "12.3%"},
		{0.5, 0, "50%"},
		{1, 2, "100.00%"},
		{0.25, 1, "25.0%"},
	}

	for _, tt := range tests {
		if got := Percentage(tt.value, tt.decimals); got != tt.want {
			t.Errorf("Percentage(%v, %d) = %q, want %q", tt.value, tt.decimals, got, tt.want)
		}
	}

	if got := PercentageDefault(0.875); got != "87.5%" {
		t.Errorf("PercentageDefault(0.875) = %q, want %q", got, "87.5%")
	}
}

func TestDateTime(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	if got, want := DateTime(ts), "Mar 5, 2024, 02:07:09 PM"; got != want {
		t.Errorf("DateTime = %q, want %q", got, want)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"thirty seconds", 30 * time.Second, "just now"},
		{"ninety seconds", 90 * time.Second, "1 minute ago"},
		{"five minutes", 5 * time.Minute, "5 minutes ago"},
		{"one hour", time.Hour, "1 hour ago"},
		{"two days", 48 * time.Hour, "2 days ago"},
		{"ten days", 10 * 24 * time.Hour, "1 week ago"},
		{"forty days", 40 * 24 * time.Hour, "1 month ago"},
		{"two years", 2 * 365 * 24 * time.Hour, "2 years ago"},
		{"future", -time.Hour, "just now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeAgo(now.Add(-tt.ago), now); got != tt.want {
				t.Errorf("TimeAgo(-%v) = %q, want %q", tt.ago, got, tt.want)
			}
		})
	}
}
