package textmodel

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// ClassMetrics holds per-label precision/recall.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation summarizes held-out performance.
type Evaluation struct {
	Accuracy float64                 `json:"accuracy"`
	Classes  map[string]ClassMetrics `json:"classes"`
	Samples  int                     `json:"samples"`
}

// StratifiedSplit shuffles each label group with seed and moves testFraction
// of it (at least one sample when the group has two or more) to the test set.
func StratifiedSplit(examples []Example, testFraction float64, seed int64) (train, test []Example) {
	groups := map[string][]Example{}
	var labels []string
	for _, ex := range examples {
		if _, ok := groups[ex.Label]; !ok {
			labels = append(labels, ex.Label)
		}
		groups[ex.Label] = append(groups[ex.Label], ex)
	}
	sort.Strings(labels)

	rng := rand.New(rand.NewSource(seed))
	for _, label := range labels {
		group := append([]Example(nil), groups[label]...)
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })

		nTest := int(float64(len(group))*testFraction + 0.5)
		if nTest == 0 && len(group) > 1 && testFraction > 0 {
			nTest = 1
		}
		if nTest >= len(group) {
			nTest = len(group) - 1
		}
		test = append(test, group[:nTest]...)
		train = append(train, group[nTest:]...)
	}
	return train, test
}

// Evaluate scores p on held-out examples.
func Evaluate(p *Pipeline, examples []Example) Evaluation {
	type counts struct{ tp, fp, fn, support int }
	perLabel := map[string]*counts{}
	for _, class := range p.Classes {
		perLabel[class] = &counts{}
	}

	correct := 0
	for _, ex := range examples {
		got := p.Predict(ex.Text)
		if _, ok := perLabel[ex.Label]; !ok {
			perLabel[ex.Label] = &counts{}
		}
		perLabel[ex.Label].support++
		if got == ex.Label {
			correct++
			perLabel[got].tp++
			continue
		}
		perLabel[got].fp++
		perLabel[ex.Label].fn++
	}

	eval := Evaluation{Classes: map[string]ClassMetrics{}, Samples: len(examples)}
	if len(examples) > 0 {
		eval.Accuracy = float64(correct) / float64(len(examples))
	}
	for label, c := range perLabel {
		m := ClassMetrics{Support: c.support}
		if c.tp+c.fp > 0 {
			m.Precision = float64(c.tp) / float64(c.tp+c.fp)
		}
		if c.tp+c.fn > 0 {
			m.Recall = float64(c.tp) / float64(c.tp+c.fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		eval.Classes[label] = m
	}
	return eval
}

// String renders a classification report table.
func (e Evaluation) String() string {
	labels := make([]string, 0, len(e.Classes))
	for label := range e.Classes {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy: %.2f (%d samples)\n\n", e.Accuracy, e.Samples)
	fmt.Fprintf(&b, "%-16s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	for _, label := range labels {
		m := e.Classes[label]
		fmt.Fprintf(&b, "%-16s %9.2f %9.2f %9.2f %9d\n", label, m.Precision, m.Recall, m.F1, m.Support)
	}
	return b.String()
}
