package classifier

import (
	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
	"ThreatMonitor/internal/textmodel"
)

// StatisticalStrategy is the registry name of Statistical.
const StatisticalStrategy = "model"

// ModelSource hands out the process-wide trained model.
type ModelSource interface {
	Model() *textmodel.Pipeline
	Status() domain.ModelStatus
}

// Statistical scores text with the TF-IDF + logistic-regression model.
type Statistical struct {
	source ModelSource
}

var _ ports.Classifier = (*Statistical)(nil)

// NewStatistical wraps a model source.
func NewStatistical(source ModelSource) *Statistical {
	return &Statistical{source: source}
}

// Name implements ports.Classifier.
func (s *Statistical) Name() string { return StatisticalStrategy }

// Info implements ports.Classifier.
func (s *Statistical) Info() domain.ClassifierInfo {
	return domain.ClassifierInfo{Strategy: StatisticalStrategy, ModelStatus: s.source.Status()}
}

// Score maps the "suspicious" label to SUSPICIOUS and anything else to SAFE;
// the score is the probability of the predicted class.
func (s *Statistical) Score(item domain.ExtractedItem) (domain.ScoredItem, error) {
	if err := ValidateText(item.Text); err != nil {
		return domain.ScoredItem{}, err
	}

	model := s.source.Model()
	proba := model.PredictProba(item.Text)

	verdict := domain.VerdictSafe
	score := proba[0]
	if proba[1] > proba[0] {
		score = proba[1]
		if model.Classes[1] == textmodel.LabelSuspicious {
			verdict = domain.VerdictSuspicious
		}
	} else if model.Classes[0] == textmodel.LabelSuspicious {
		verdict = domain.VerdictSuspicious
	}

	return domain.ScoredItem{
		SourceID: item.SourceID,
		Text:     item.Text,
		Verdict:  verdict,
		Score:    score,
	}, nil
}
