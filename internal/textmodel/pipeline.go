// Package textmodel implements the statistical suspicion classifier: a TF-IDF
// vectorizer feeding binary logistic regression, with JSON persistence.
package textmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	LabelSuspicious    = "suspicious"
	LabelNotSuspicious = "not suspicious"

	artifactVersion = 1
)

// Options configures both pipeline stages.
type Options struct {
	Vectorizer VectorizerOptions `json:"vectorizer"`
	Logistic   LogisticOptions   `json:"logistic"`
}

// DefaultOptions is the production shape: 1-3 grams, 5000 features,
// English stop words, balanced class weights.
func DefaultOptions() Options {
	return Options{
		Vectorizer: VectorizerOptions{MinN: 1, MaxN: 3, MaxFeatures: 5000, EnglishStopList: true, Lowercase: true},
		Logistic:   LogisticOptions{C: 1, Iterations: 500, BalanceLabels: true},
	}
}

// FallbackOptions is the reduced shape used for the built-in toy corpus.
func FallbackOptions() Options {
	return Options{
		Vectorizer: VectorizerOptions{MinN: 1, MaxN: 1, MaxFeatures: 1000, Lowercase: true},
		Logistic:   LogisticOptions{C: 1, Iterations: 500},
	}
}

// Example is one labeled training sample.
type Example struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// FallbackExamples keeps the system usable when no training data exists.
func FallbackExamples() []Example {
	return []Example{
		{Text: "weapon dealing discussion", Label: LabelSuspicious},
		{Text: "selling guns", Label: LabelSuspicious},
		{Text: "terrorist funding", Label: LabelSuspicious},
		{Text: "normal discussion", Label: LabelNotSuspicious},
		{Text: "technology news", Label: LabelNotSuspicious},
		{Text: "cooking recipes", Label: LabelNotSuspicious},
	}
}

// Pipeline is the trained classifier artifact. It is never mutated after
// Fit or Load, so concurrent Predict calls need no locking.
type Pipeline struct {
	Version    int         `json:"version"`
	Classes    [2]string   `json:"classes"`
	Vectorizer *Vectorizer `json:"vectorizer"`
	Classifier *Logistic   `json:"classifier"`
}

// Train fits a new pipeline on examples. Exactly two distinct labels are required.
func Train(examples []Example, opts Options) (*Pipeline, error) {
	classes, err := classesOf(examples)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(examples))
	y := make([]int, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
		if ex.Label == classes[1] {
			y[i] = 1
		}
	}

	vec := NewVectorizer(opts.Vectorizer)
	if err := vec.Fit(texts); err != nil {
		return nil, err
	}

	rows := make([]Vector, len(texts))
	for i, text := range texts {
		rows[i] = vec.Transform(text)
	}

	clf := NewLogistic(opts.Logistic)
	if err := clf.Fit(rows, y, vec.Dim()); err != nil {
		return nil, err
	}

	return &Pipeline{Version: artifactVersion, Classes: classes, Vectorizer: vec, Classifier: clf}, nil
}

// PredictProba returns class probabilities ordered like Classes.
func (p *Pipeline) PredictProba(text string) [2]float64 {
	pos := p.Classifier.Probability(p.Vectorizer.Transform(text))
	return [2]float64{1 - pos, pos}
}

// Predict returns the most probable label.
func (p *Pipeline) Predict(text string) string {
	proba := p.PredictProba(text)
	if proba[1] > proba[0] {
		return p.Classes[1]
	}
	return p.Classes[0]
}

// Save writes the artifact atomically.
func (p *Pipeline) Save(path string) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create model dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace model: %w", err)
	}
	return nil
}

// Load reads and validates an artifact written by Save.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var p Pipeline
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return &p, nil
}

func (p *Pipeline) validate() error {
	switch {
	case p.Version != artifactVersion:
		return fmt.Errorf("unsupported version %d", p.Version)
	case p.Vectorizer == nil || p.Classifier == nil:
		return errors.New("missing stage")
	case len(p.Vectorizer.IDF) != len(p.Vectorizer.Vocabulary):
		return errors.New("vocabulary and idf differ in size")
	case len(p.Classifier.Weights) != len(p.Vectorizer.IDF):
		return errors.New("weights do not match vocabulary")
	case p.Classes[0] == "" || p.Classes[1] == "":
		return errors.New("missing class labels")
	}
	for term, idx := range p.Vectorizer.Vocabulary {
		if idx < 0 || idx >= len(p.Vectorizer.IDF) {
			return fmt.Errorf("term %q has index %d out of range", term, idx)
		}
	}
	return nil
}

// classesOf returns the two labels in sorted order, so "suspicious" is the
// positive class for the standard label set.
func classesOf(examples []Example) ([2]string, error) {
	set := map[string]struct{}{}
	for _, ex := range examples {
		set[ex.Label] = struct{}{}
	}
	if len(set) != 2 {
		return [2]string{}, fmt.Errorf("need exactly 2 labels, got %d", len(set))
	}

	labels := make([]string, 0, 2)
	for label := range set {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return [2]string{labels[0], labels[1]}, nil
}

type trainingFile struct {
	Data []Example `json:"data"`
}

// LoadTrainingData reads {"data": [{"text": ..., "label": ...}]}.
func LoadTrainingData(path string) ([]Example, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read training data: %w", err)
	}

	var file trainingFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode training data: %w", err)
	}
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("training data %s has no examples", path)
	}
	return file.Data, nil
}
