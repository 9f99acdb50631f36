package textmodel

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// VectorizerOptions mirrors the usual TF-IDF knobs.
type VectorizerOptions struct {
	MinN            int  `json:"min_n"`
	MaxN            int  `json:"max_n"`
	MaxFeatures     int  `json:"max_features"`
	EnglishStopList bool `json:"english_stop_words"`
	Lowercase       bool `json:"lowercase"`
}

// Feature is one non-zero entry of a sparse vector.
type Feature struct {
	Index int
	Value float64
}

// Vector is a sparse, L2-normalized TF-IDF row.
type Vector []Feature

// Vectorizer turns documents into TF-IDF vectors over a fixed vocabulary.
// It is immutable after Fit.
type Vectorizer struct {
	Options    VectorizerOptions `json:"options"`
	Vocabulary map[string]int    `json:"vocabulary"`
	IDF        []float64         `json:"idf"`
}

// NewVectorizer validates options and returns an unfitted vectorizer.
func NewVectorizer(opts VectorizerOptions) *Vectorizer {
	if opts.MinN <= 0 {
		opts.MinN = 1
	}
	if opts.MaxN < opts.MinN {
		opts.MaxN = opts.MinN
	}
	return &Vectorizer{Options: opts}
}

// Analyze returns the n-gram terms of a document.
func (v *Vectorizer) Analyze(doc string) []string {
	if v.Options.Lowercase {
		doc = strings.ToLower(doc)
	}

	raw := tokenPattern.FindAllString(doc, -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if v.Options.EnglishStopList {
			if _, stop := englishStopWords[tok]; stop {
				continue
			}
		}
		tokens = append(tokens, tok)
	}

	var terms []string
	for n := v.Options.MinN; n <= v.Options.MaxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// Fit learns vocabulary and smoothed IDF weights from the corpus.
func (v *Vectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return fmt.Errorf("fit vectorizer: empty corpus")
	}

	docFreq := map[string]int{}
	termFreq := map[string]int{}
	for _, doc := range docs {
		seen := map[string]struct{}{}
		for _, term := range v.Analyze(doc) {
			termFreq[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			docFreq[term]++
		}
	}
	if len(termFreq) == 0 {
		return fmt.Errorf("fit vectorizer: empty vocabulary")
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}

	if limit := v.Options.MaxFeatures; limit > 0 && len(terms) > limit {
		sort.Slice(terms, func(i, j int) bool {
			if termFreq[terms[i]] != termFreq[terms[j]] {
				return termFreq[terms[i]] > termFreq[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:limit]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	return nil
}

// Dim is the feature-space width.
func (v *Vectorizer) Dim() int {
	return len(v.IDF)
}

// Transform maps a document onto the fitted vocabulary.
func (v *Vectorizer) Transform(doc string) Vector {
	counts := map[int]float64{}
	for _, term := range v.Analyze(doc) {
		if idx, ok := v.Vocabulary[term]; ok {
			counts[idx]++
		}
	}

	vec := make(Vector, 0, len(counts))
	for idx, tf := range counts {
		vec = append(vec, Feature{Index: idx, Value: tf * v.IDF[idx]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].Index < vec[j].Index })

	// summed in index order so repeated calls are bit-identical
	var norm float64
	for _, f := range vec {
		norm += f.Value * f.Value
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i].Value /= norm
		}
	}
	return vec
}
