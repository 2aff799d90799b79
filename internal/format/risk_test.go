package format

import "testing"

func TestRiskBands(t *testing.T) {
	tests := []struct {
		score     float64
		wantColor string
		wantLabel string
		wantClass string
	}{
		{-1, ColorLowRisk, LabelSafe, "success"},
		{0, ColorLowRisk, LabelSafe, "success"},
		{0.39999, ColorLowRisk, LabelSafe, "success"},
		{0.4, ColorMediumRisk, LabelMediumRisk, "warning"},
		{0.69999, ColorMediumRisk, LabelMediumRisk, "warning"},
		{0.7, ColorHighRisk, LabelHighRisk, "danger"},
		{1, ColorHighRisk, LabelHighRisk, "danger"},
		{42, ColorHighRisk, LabelHighRisk, "danger"},
	}

	for _, tt := range tests {
		if got := RiskColor(tt.score); got != tt.wantColor {
			t.Errorf("RiskColor(%v) = %q, want %q", tt.score, got, tt.wantColor)
		}
		if got := RiskLabel(tt.score); got != tt.wantLabel {
			t.Errorf("RiskLabel(%v) = %q, want %q", tt.score, got, tt.wantLabel)
		}
		if got := RiskClass(tt.score); got != tt.wantClass {
			t.Errorf("RiskClass(%v) = %q, want %q", tt.score, got, tt.wantClass)
		}
	}
}

func TestLevel_Monotonic(t *testing.T) {
	prev := Level(-0.5)
	for i := 0; i <= 150; i++ {
		score := float64(i) / 100
		lvl := Level(score)
		if lvl < prev {
			t.Fatalf("Level(%v) = %v dropped below previous %v", score, lvl, prev)
		}
		prev = lvl
	}
}
