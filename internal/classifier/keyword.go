package classifier

import (
	"strings"

	"ThreatMonitor/internal/config"
	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

// KeywordStrategy is the registry name of Keyword.
const KeywordStrategy = "keyword"

// TermSet is one weighted category of risk terms.
type TermSet struct {
	Name   string
	Weight int
	Terms  []string
}

// Thresholds map a keyword score to a verdict.
type Thresholds struct {
	Suspicious            int
	PotentiallySuspicious int
}

// Keyword scores text by weighted, case-insensitive substring matches.
// Each term contributes at most once, regardless of how often it occurs.
type Keyword struct {
	sets       []TermSet
	thresholds Thresholds
}

var _ ports.Classifier = (*Keyword)(nil)

// NewKeyword builds the strategy from explicit term sets.
func NewKeyword(sets []TermSet, thresholds Thresholds) *Keyword {
	normalized := make([]TermSet, 0, len(sets))
	for _, set := range sets {
		terms := make([]string, 0, len(set.Terms))
		for _, term := range set.Terms {
			if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
				terms = append(terms, term)
			}
		}
		normalized = append(normalized, TermSet{Name: set.Name, Weight: set.Weight, Terms: terms})
	}
	return &Keyword{sets: normalized, thresholds: thresholds}
}

// NewKeywordFromConfig adapts the YAML classifier section.
func NewKeywordFromConfig(cfg config.ClassifierConfig) *Keyword {
	sets := make([]TermSet, 0, len(cfg.Keyword.Sets))
	for _, set := range cfg.Keyword.Sets {
		sets = append(sets, TermSet{Name: set.Name, Weight: set.Weight, Terms: set.Terms})
	}
	return NewKeyword(sets, Thresholds{
		Suspicious:            cfg.Thresholds.Suspicious,
		PotentiallySuspicious: cfg.Thresholds.PotentiallySuspicious,
	})
}

// Name implements ports.Classifier.
func (k *Keyword) Name() string { return KeywordStrategy }

// Info implements ports.Classifier.
func (k *Keyword) Info() domain.ClassifierInfo {
	return domain.ClassifierInfo{Strategy: KeywordStrategy}
}

// Score implements ports.Classifier.
func (k *Keyword) Score(item domain.ExtractedItem) (domain.ScoredItem, error) {
	if err := ValidateText(item.Text); err != nil {
		return domain.ScoredItem{}, err
	}

	lowered := strings.ToLower(item.Text)
	total := 0
	var indicators []string
	for _, set := range k.sets {
		for _, term := range set.Terms {
			if strings.Contains(lowered, term) {
				total += set.Weight
				indicators = append(indicators, term)
			}
		}
	}

	return domain.ScoredItem{
		SourceID:   item.SourceID,
		Text:       item.Text,
		Verdict:    k.verdict(total),
		Score:      float64(max(total, 0)),
		Indicators: indicators,
	}, nil
}

func (k *Keyword) verdict(total int) domain.Verdict {
	switch {
	case total >= k.thresholds.Suspicious:
		return domain.VerdictSuspicious
	case total >= k.thresholds.PotentiallySuspicious:
		return domain.VerdictPotentiallySuspicious
	default:
		return domain.VerdictSafe
	}
}
