package ports

import (
	"context"
	"time"

	"ThreatMonitor/internal/domain"
)

// DocumentFetcher obtains raw pages from the external fetch collaborator.
type DocumentFetcher interface {
	Fetch(ctx context.Context) ([]domain.RawDocument, error)
}

// Extractor turns raw markup into plain text items.
type Extractor interface {
	Extract(docs ...domain.RawDocument) ([]domain.ExtractedItem, error)
}

// ArtifactStore persists intermediate pipeline artifacts for diagnosis.
type ArtifactStore interface {
	SaveExtracted(ctx context.Context, items []domain.ExtractedItem) error
}

// Classifier scores a single extracted item. Implementations must be safe for concurrent use.
type Classifier interface {
	Name() string
	Score(item domain.ExtractedItem) (domain.ScoredItem, error)
	Info() domain.ClassifierInfo
}

// ReportSink consumes finished run reports (log, notifier, history, bus).
type ReportSink interface {
	Consume(ctx context.Context, report domain.RunReport) error
}

// RunRepository keeps a history of run reports.
type RunRepository interface {
	SaveRun(ctx context.Context, report domain.RunReport) (int64, error)
	RecentRuns(ctx context.Context, limit uint64) ([]domain.RunReport, error)
}

// Notifier streams threat digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Summarizer produces a narrative summary for a scored item (e.g. via ChatGPT).
type Summarizer interface {
	Summarize(ctx context.Context, item domain.ScoredItem) (string, error)
}

// Scheduler drives a recurring job on a re-armable interval.
type Scheduler interface {
	Start(ctx context.Context, interval time.Duration, job func(time.Time)) error
	Reset(interval time.Duration) error
	Stop(ctx context.Context) error
}
