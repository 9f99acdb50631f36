package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

// Fanout delivers a report to every sink and joins their errors.
type Fanout []ports.ReportSink

var _ ports.ReportSink = Fanout(nil)

// Consume implements ports.ReportSink.
func (f Fanout) Consume(ctx context.Context, report domain.RunReport) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Consume(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TextSink writes the formatted report to w, e.g. stdout.
type TextSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextSink wraps a writer.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

// Consume implements ports.ReportSink.
func (s *TextSink) Consume(_ context.Context, report domain.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, FormatReport(report))
	return err
}

// LogSink records a one-line summary of every report.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink wraps a logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Consume implements ports.ReportSink.
func (s *LogSink) Consume(_ context.Context, report domain.RunReport) error {
	if report.Failed() {
		s.logger.Error("monitor report", "error", report.Error, "duration", report.Duration)
		return nil
	}
	s.logger.Info("monitor report",
		"total", report.TotalCount,
		"suspicious", report.SuspiciousCount,
		"threat_level", report.ThreatLevel,
		"strategy", report.Strategy,
		"model_status", report.ModelStatus,
		"anomalies", report.Anomalies,
		"duration", report.Duration,
	)
	return nil
}

// NotifierSink pushes a digest when a report reaches a minimum threat level.
// Failed runs are always sent.
type NotifierSink struct {
	notifier ports.Notifier
	minLevel domain.ThreatLevel
}

// NewNotifierSink wraps a notifier.
func NewNotifierSink(notifier ports.Notifier, minLevel domain.ThreatLevel) *NotifierSink {
	return &NotifierSink{notifier: notifier, minLevel: minLevel}
}

// Consume implements ports.ReportSink.
func (s *NotifierSink) Consume(ctx context.Context, report domain.RunReport) error {
	if !report.Failed() && report.ThreatLevel.Rank() < s.minLevel.Rank() {
		return nil
	}
	if err := s.notifier.PublishDigest(ctx, FormatDigest(report)); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// RepositorySink appends every report to the run history.
type RepositorySink struct {
	repo ports.RunRepository
}

// NewRepositorySink wraps a repository.
func NewRepositorySink(repo ports.RunRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

// Consume implements ports.ReportSink.
func (s *RepositorySink) Consume(ctx context.Context, report domain.RunReport) error {
	if _, err := s.repo.SaveRun(ctx, report); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// SummaryEntry is one row of the narrative summary artifact.
type SummaryEntry struct {
	SourceID      string         `json:"url"`
	Text          string         `json:"text"`
	Verdict       domain.Verdict `json:"verdict"`
	SummaryReport string         `json:"summary_report"`
}

// SummarySink asks a Summarizer about each item and writes the results with
// the supplied writer. Per-item failures are logged and leave the summary empty.
type SummarySink struct {
	summarizer ports.Summarizer
	write      func(entries []SummaryEntry) error
	maxItems   int
	logger     *slog.Logger
}

// NewSummarySink builds the sink; maxItems <= 0 means all items.
func NewSummarySink(summarizer ports.Summarizer, write func([]SummaryEntry) error, maxItems int, logger *slog.Logger) *SummarySink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SummarySink{summarizer: summarizer, write: write, maxItems: maxItems, logger: logger}
}

// Consume implements ports.ReportSink.
func (s *SummarySink) Consume(ctx context.Context, report domain.RunReport) error {
	if report.Failed() || len(report.Items) == 0 {
		return nil
	}

	items := report.Items
	if s.maxItems > 0 && len(items) > s.maxItems {
		items = items[:s.maxItems]
	}

	entries := make([]SummaryEntry, 0, len(items))
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		summary, err := s.summarizer.Summarize(ctx, item)
		if err != nil {
			s.logger.Warn("summarize item", "url", item.SourceID, "error", err)
		}
		entries = append(entries, SummaryEntry{
			SourceID:      item.SourceID,
			Text:          item.Text,
			Verdict:       item.Verdict,
			SummaryReport: summary,
		})
	}

	if err := s.write(entries); err != nil {
		return fmt.Errorf("write summaries: %w", err)
	}
	return nil
}
