package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ThreatMonitor/internal/classifier"
	"ThreatMonitor/internal/config"
	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/infrastructure/parser"
)

type fakeFetcher struct {
	docs  []domain.RawDocument
	err   error
	block bool
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]domain.RawDocument, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.docs, f.err
}

type fakeArtifacts struct {
	mu    sync.Mutex
	saved []domain.ExtractedItem
	calls int
	err   error
}

func (a *fakeArtifacts) SaveExtracted(_ context.Context, items []domain.ExtractedItem) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.saved = items
	return a.err
}

func (a *fakeArtifacts) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// orderCheckingClassifier records whether artifacts were persisted before scoring.
type orderCheckingClassifier struct {
	inner          *classifier.Keyword
	artifacts      *fakeArtifacts
	persistedFirst bool
}

func (c *orderCheckingClassifier) Name() string                { return c.inner.Name() }
func (c *orderCheckingClassifier) Info() domain.ClassifierInfo { return c.inner.Info() }
func (c *orderCheckingClassifier) Score(item domain.ExtractedItem) (domain.ScoredItem, error) {
	c.persistedFirst = c.artifacts.Calls() == 1
	return c.inner.Score(item)
}

func keywordClassifier() *classifier.Keyword {
	return classifier.NewKeywordFromConfig(config.Default().Classifier)
}

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current := now
		now = now.Add(step)
		return current
	}
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	artifacts := &fakeArtifacts{}
	clf := &orderCheckingClassifier{inner: keywordClassifier(), artifacts: artifacts}
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	p := NewPipeline(PipelineDeps{
		Fetcher: &fakeFetcher{docs: []domain.RawDocument{
			{SourceID: "http://a", Markup: "<p>Selling a rifle and ammunition</p>"},
			{SourceID: "http://b", Markup: "<p>technology news</p>"},
			{SourceID: "http://c", Markup: "<p>separatist rally</p>"},
		}},
		Extractor:  parser.NewHTMLExtractor(),
		Artifacts:  artifacts,
		Classifier: clf,
		Clock:      fixedClock(start, 2*time.Second),
	})

	report := p.Run(context.Background())
	if report.Failed() {
		t.Fatalf("unexpected failure: %v", report.Err)
	}
	if report.TotalCount != 3 || report.SuspiciousCount != 1 || report.ThreatLevel != domain.ThreatMedium {
		t.Fatalf("unexpected aggregate: %+v", report)
	}
	if report.Items[1].Verdict != domain.VerdictSafe || report.Items[2].Verdict != domain.VerdictPotentiallySuspicious {
		t.Fatalf("unexpected verdicts: %+v", report.Items)
	}
	if !clf.persistedFirst || len(artifacts.saved) != 3 {
		t.Fatal("extracted items must be persisted before scoring")
	}
	if !report.Timestamp.Equal(start) || report.Duration != 2*time.Second {
		t.Fatalf("timestamp/duration = %v/%v", report.Timestamp, report.Duration)
	}
	if report.Strategy != classifier.KeywordStrategy {
		t.Fatalf("strategy = %q", report.Strategy)
	}
}

func TestPipelineFetchTimeout(t *testing.T) {
	t.Parallel()

	artifacts := &fakeArtifacts{}
	p := NewPipeline(PipelineDeps{
		Fetcher:      &fakeFetcher{block: true},
		Extractor:    parser.NewHTMLExtractor(),
		Artifacts:    artifacts,
		Classifier:   keywordClassifier(),
		FetchTimeout: 50 * time.Millisecond,
	})

	report := p.Run(context.Background())
	if !errors.Is(report.Err, domain.ErrFetchFailed) || !errors.Is(report.Err, context.DeadlineExceeded) {
		t.Fatalf("expected fetch timeout, got %v", report.Err)
	}
	if report.TotalCount != 0 || report.ThreatLevel != domain.ThreatLow || len(report.Items) != 0 {
		t.Fatalf("failed report must be empty: %+v", report)
	}
	if artifacts.Calls() != 0 {
		t.Fatal("nothing should be persisted after a failed fetch")
	}
}

func TestPipelineFatalErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		fetcher   *fakeFetcher
		artifacts *fakeArtifacts
		want      error
	}{
		{
			name:      "fetch error",
			fetcher:   &fakeFetcher{err: errors.New("exit status 1")},
			artifacts: &fakeArtifacts{},
			want:      domain.ErrFetchFailed,
		},
		{
			name:      "malformed document",
			fetcher:   &fakeFetcher{docs: []domain.RawDocument{{SourceID: "", Markup: "<p>x</p>"}}},
			artifacts: &fakeArtifacts{},
			want:      domain.ErrMalformedDocument,
		},
		{
			name:      "artifact write",
			fetcher:   &fakeFetcher{docs: []domain.RawDocument{{SourceID: "u", Markup: "<p>x</p>"}}},
			artifacts: &fakeArtifacts{err: errors.New("disk full")},
		},
	}

	for _, tc := range cases {
		p := NewPipeline(PipelineDeps{
			Fetcher:    tc.fetcher,
			Extractor:  parser.NewHTMLExtractor(),
			Artifacts:  tc.artifacts,
			Classifier: keywordClassifier(),
		})
		report := p.Run(context.Background())
		if !report.Failed() || report.TotalCount != 0 {
			t.Fatalf("%s: expected failed empty report, got %+v", tc.name, report)
		}
		if tc.want != nil && !errors.Is(report.Err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, report.Err, tc.want)
		}
	}
}

func TestPipelineDegradesClassificationErrors(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{
		Fetcher: &fakeFetcher{docs: []domain.RawDocument{
			{SourceID: "http://empty", Markup: "<script>var x = 1;</script>"},
			{SourceID: "http://bad", Markup: "<p>jihad recruitment and a bomb</p>"},
		}},
		Extractor:  parser.NewHTMLExtractor(),
		Artifacts:  &fakeArtifacts{},
		Classifier: keywordClassifier(),
	})

	report := p.Run(context.Background())
	if report.Failed() {
		t.Fatalf("unexpected failure: %v", report.Err)
	}
	if report.Anomalies != 1 {
		t.Fatalf("anomalies = %d, want 1", report.Anomalies)
	}
	first := report.Items[0]
	if first.SourceID != "http://empty" || first.Verdict != domain.VerdictSafe || first.Score != 0 {
		t.Fatalf("degraded item = %+v", first)
	}
	if report.SuspiciousCount != 1 || report.ThreatLevel != domain.ThreatMedium {
		t.Fatalf("unexpected aggregate: %+v", report)
	}
}

func TestPipelineEmptyRun(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{
		Fetcher:    &fakeFetcher{docs: nil},
		Extractor:  parser.NewHTMLExtractor(),
		Artifacts:  &fakeArtifacts{},
		Classifier: keywordClassifier(),
	})

	report := p.Run(context.Background())
	if report.Failed() || report.TotalCount != 0 || report.ThreatLevel != domain.ThreatLow {
		t.Fatalf("unexpected empty-run report: %+v", report)
	}
}
