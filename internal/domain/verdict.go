package domain

// Verdict is the tri-state suspicion classification of a single text item.
type Verdict string

const (
	VerdictSafe                  Verdict = "SAFE"
	VerdictPotentiallySuspicious Verdict = "POTENTIALLY_SUSPICIOUS"
	VerdictSuspicious            Verdict = "SUSPICIOUS"
)

// Label returns the human readable form used in text reports.
func (v Verdict) Label() string {
	switch v {
	case VerdictSuspicious:
		return "SUSPICIOUS"
	case VerdictPotentiallySuspicious:
		return "POTENTIALLY SUSPICIOUS"
	default:
		return "SAFE"
	}
}

// ScoredItem carries the classifier output for one extracted item.
type ScoredItem struct {
	SourceID   string   `json:"url"`
	Text       string   `json:"text"`
	Verdict    Verdict  `json:"verdict"`
	Score      float64  `json:"score"`
	Indicators []string `json:"indicators,omitempty"`
}

// ModelStatus tells how the statistical model was obtained.
type ModelStatus string

const (
	ModelLoaded   ModelStatus = "loaded"
	ModelTrained  ModelStatus = "trained"
	ModelFallback ModelStatus = "fallback"
)

// ClassifierInfo describes the strategy that produced a report.
type ClassifierInfo struct {
	Strategy    string      `json:"strategy"`
	ModelStatus ModelStatus `json:"model_status,omitempty"`
}
