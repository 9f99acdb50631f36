package domain

import "time"

// ThreatLevel summarizes a whole run.
type ThreatLevel string

const (
	ThreatLow    ThreatLevel = "LOW"
	ThreatMedium ThreatLevel = "MEDIUM"
	ThreatHigh   ThreatLevel = "HIGH"
)

// Rank orders threat levels so sinks can apply minimum-level filters.
func (t ThreatLevel) Rank() int {
	switch t {
	case ThreatHigh:
		return 2
	case ThreatMedium:
		return 1
	default:
		return 0
	}
}

// ParseThreatLevel maps free-form config values to a ThreatLevel, defaulting to LOW.
func ParseThreatLevel(value string) ThreatLevel {
	switch ThreatLevel(value) {
	case ThreatHigh, "high":
		return ThreatHigh
	case ThreatMedium, "medium":
		return ThreatMedium
	default:
		return ThreatLow
	}
}

// RunReport is the aggregate output of one pipeline execution.
// Build it with NewRunReport so the counters always agree with Items.
type RunReport struct {
	Items           []ScoredItem  `json:"items"`
	TotalCount      int           `json:"total_count"`
	SuspiciousCount int           `json:"suspicious_count"`
	ThreatLevel     ThreatLevel   `json:"threat_level"`
	Timestamp       time.Time     `json:"timestamp"`
	Duration        time.Duration `json:"duration"`
	Strategy        string        `json:"strategy,omitempty"`
	ModelStatus     ModelStatus   `json:"model_status,omitempty"`
	Anomalies       int           `json:"anomalies"`
	Error           string        `json:"error,omitempty"`
	Err             error         `json:"-"`
}

// NewRunReport derives counters and threat level from items.
func NewRunReport(items []ScoredItem, at time.Time) RunReport {
	suspicious := 0
	for _, item := range items {
		if item.Verdict == VerdictSuspicious {
			suspicious++
		}
	}

	return RunReport{
		Items:           items,
		TotalCount:      len(items),
		SuspiciousCount: suspicious,
		ThreatLevel:     threatLevel(suspicious, len(items)),
		Timestamp:       at,
	}
}

// FailedRunReport returns an empty report carrying a fatal run error.
func FailedRunReport(err error, at time.Time) RunReport {
	report := NewRunReport(nil, at)
	report.WithError(err)
	return report
}

// WithError attaches a fatal run error.
func (r *RunReport) WithError(err error) {
	r.Err = err
	if err != nil {
		r.Error = err.Error()
	}
}

// Failed reports whether the run ended with a fatal error.
func (r RunReport) Failed() bool {
	return r.Err != nil || r.Error != ""
}

func threatLevel(suspicious, total int) ThreatLevel {
	switch {
	case suspicious*2 > total:
		return ThreatHigh
	case suspicious > 0:
		return ThreatMedium
	default:
		return ThreatLow
	}
}
