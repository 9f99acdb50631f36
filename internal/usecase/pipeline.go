package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

// DefaultFetchTimeout bounds the external fetch step.
const DefaultFetchTimeout = 60 * time.Second

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Fetcher      ports.DocumentFetcher
	Extractor    ports.Extractor
	Artifacts    ports.ArtifactStore
	Classifier   ports.Classifier
	FetchTimeout time.Duration
	Logger       *slog.Logger
	Clock        func() time.Time
}

// Pipeline runs one fetch, extract, persist, classify, report pass.
type Pipeline struct {
	fetcher      ports.DocumentFetcher
	extractor    ports.Extractor
	artifacts    ports.ArtifactStore
	classifier   ports.Classifier
	fetchTimeout time.Duration
	logger       *slog.Logger
	clock        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		fetcher:      deps.Fetcher,
		extractor:    deps.Extractor,
		artifacts:    deps.Artifacts,
		classifier:   deps.Classifier,
		fetchTimeout: deps.FetchTimeout,
		logger:       deps.Logger,
		clock:        deps.Clock,
	}
	if p.fetchTimeout <= 0 {
		p.fetchTimeout = DefaultFetchTimeout
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	return p
}

// Run never returns an error: fatal failures are attached to the report.
func (p *Pipeline) Run(ctx context.Context) domain.RunReport {
	started := p.clock()

	report, err := p.run(ctx, started)
	if err != nil {
		report = domain.FailedRunReport(err, started)
		p.logger.Error("monitor run failed", "error", err)
	}

	if p.classifier != nil {
		info := p.classifier.Info()
		report.Strategy = info.Strategy
		report.ModelStatus = info.ModelStatus
	}
	report.Duration = p.clock().Sub(started)
	return report
}

func (p *Pipeline) run(ctx context.Context, started time.Time) (domain.RunReport, error) {
	if p.fetcher == nil || p.extractor == nil || p.classifier == nil {
		return domain.RunReport{}, errors.New("pipeline is not fully configured")
	}

	docs, err := p.fetch(ctx)
	if err != nil {
		return domain.RunReport{}, err
	}

	items, err := p.extractor.Extract(docs...)
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("extract: %w", err)
	}

	if p.artifacts != nil {
		if err := p.artifacts.SaveExtracted(ctx, items); err != nil {
			return domain.RunReport{}, fmt.Errorf("persist extracted items: %w", err)
		}
	}

	scored := make([]domain.ScoredItem, 0, len(items))
	anomalies := 0
	for _, item := range items {
		result, err := p.classifier.Score(item)
		if err != nil {
			p.logger.Warn("classification failed, item marked safe", "url", item.SourceID, "error", err)
			anomalies++
			result = domain.ScoredItem{SourceID: item.SourceID, Text: item.Text, Verdict: domain.VerdictSafe}
		}
		scored = append(scored, result)
	}

	report := domain.NewRunReport(scored, started)
	report.Anomalies = anomalies
	p.logger.Info("monitor run finished",
		"total", report.TotalCount,
		"suspicious", report.SuspiciousCount,
		"threat_level", report.ThreatLevel,
		"anomalies", anomalies,
	)
	return report, nil
}

func (p *Pipeline) fetch(ctx context.Context) ([]domain.RawDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	docs, err := p.fetcher.Fetch(ctx)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil {
		return docs, nil
	}
	if errors.Is(err, domain.ErrFetchFailed) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
}
