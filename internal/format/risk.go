package format

// Risk thresholds. Scores are normally in [0,1] but are not range checked.
const (
	HighRiskThreshold   = 0.7
	MediumRiskThreshold = 0.4
)

// Risk colors used by charts and badges.
const (
	ColorHighRisk   = "#dc3545"
	ColorMediumRisk = "#ffc107"
	ColorLowRisk    = "#28a745"
)

// Risk labels shown next to a score.
const (
	LabelHighRisk   = "HIGH RISK"
	LabelMediumRisk = "MEDIUM RISK"
	LabelSafe       = "SAFE"
)

// RiskLevel is the band a score falls into.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// Level classifies score: [0.7,∞) high, [0.4,0.7) medium, everything
// else low.
func Level(score float64) RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return RiskHigh
	case score >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskColor returns the hex color for score.
func RiskColor(score float64) string {
	switch Level(score) {
	case RiskHigh:
		return ColorHighRisk
	case RiskMedium:
		return ColorMediumRisk
	default:
		return ColorLowRisk
	}
}

// RiskLabel returns the display label for score.
func RiskLabel(score float64) string {
	switch Level(score) {
	case RiskHigh:
		return LabelHighRisk
	case RiskMedium:
		return LabelMediumRisk
	default:
		return LabelSafe
	}
}

// RiskClass returns the Bootstrap contextual class for score.
func RiskClass(score float64) string {
	switch Level(score) {
	case RiskHigh:
		return "danger"
	case RiskMedium:
		return "warning"
	default:
		return "success"
	}
}
