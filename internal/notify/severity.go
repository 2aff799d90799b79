package notify

import "time"

// Severity classifies a banner.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// Default display durations per severity.
const (
	SuccessDuration = 3 * time.Second
	ErrorDuration   = 5 * time.Second
	WarningDuration = 4 * time.Second
	InfoDuration    = 3 * time.Second
)

// ParseSeverity maps a name to a Severity. Unknown names are Info.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case Success, Error, Warning, Info:
		return Severity(s)
	case "danger":
		return Error
	default:
		return Info
	}
}

// Normalize returns sev, or Info when sev is not a known severity.
func (sev Severity) Normalize() Severity {
	return ParseSeverity(string(sev))
}

// Class returns the Bootstrap alert class for the severity.
func (sev Severity) Class() string {
	switch sev.Normalize() {
	case Success:
		return "alert-success"
	case Error:
		return "alert-danger"
	case Warning:
		return "alert-warning"
	default:
		return "alert-info"
	}
}

// Icon returns the Font Awesome icon name for the severity.
func (sev Severity) Icon() string {
	switch sev.Normalize() {
	case Success:
		return "check-circle"
	case Error:
		return "exclamation-circle"
	case Warning:
		return "exclamation-triangle"
	default:
		return "info-circle"
	}
}

// DefaultDuration returns the display duration used by the severity's
// convenience method.
func (sev Severity) DefaultDuration() time.Duration {
	switch sev.Normalize() {
	case Error:
		return ErrorDuration
	case Warning:
		return WarningDuration
	case Success:
		return SuccessDuration
	default:
		return InfoDuration
	}
}
