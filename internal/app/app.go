package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ThreatMonitor/internal/classifier"
	"ThreatMonitor/internal/config"
	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/infrastructure/bus"
	"ThreatMonitor/internal/infrastructure/fetch"
	"ThreatMonitor/internal/infrastructure/llm"
	"ThreatMonitor/internal/infrastructure/ml"
	"ThreatMonitor/internal/infrastructure/parser"
	"ThreatMonitor/internal/infrastructure/scheduler"
	"ThreatMonitor/internal/infrastructure/storage"
	"ThreatMonitor/internal/infrastructure/telegram"
	"ThreatMonitor/internal/logging"
	"ThreatMonitor/internal/ports"
	"ThreatMonitor/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	sink      ports.ReportSink
	closers   []func() error
}

// New builds the runnable application. Optional sinks (Telegram, NATS,
// Postgres, ChatGPT) are enabled only when configured. out receives the
// formatted text report of every run; nil disables it.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, out io.Writer) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	clf, err := BuildClassifier(cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	fetchCfg := cfg.Fetch
	fetchCfg.Env = cfg.FetchEnv()

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:      fetch.NewProcessFetcher(fetchCfg, baseLogger.With("component", "fetch")),
		Extractor:    parser.NewHTMLExtractor(),
		Artifacts:    storage.NewJSONArtifacts(cfg.Artifacts.ExtractedPath),
		Classifier:   clf,
		FetchTimeout: cfg.Fetch.Timeout,
		Logger:       baseLogger.With("component", "pipeline"),
	})

	sinks, err := a.buildSinks(ctx, out)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.sink = sinks

	a.scheduler = usecase.NewScheduler(
		scheduler.NewTickerScheduler(),
		a.pipeline,
		a.sink,
		baseLogger.With("component", "scheduler"),
	)
	return a, nil
}

// BuildClassifier registers every available strategy and resolves the
// configured one, wrapped in the result cache.
func BuildClassifier(cfg config.Config, logger *slog.Logger) (ports.Classifier, error) {
	registry := classifier.NewRegistry()
	registry.Register(classifier.NewKeywordFromConfig(cfg.Classifier))
	registry.Register(classifier.NewStatistical(ml.NewStore(cfg.Model, logger.With("component", "model"))))
	if cfg.ML.InferenceURL != "" {
		registry.Register(ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey))
	}

	strategy, err := registry.Resolve(cfg.Classifier.Strategy)
	if err != nil {
		return nil, err
	}
	return classifier.NewCached(strategy, cfg.Classifier.CacheTTL), nil
}

func (a *Application) buildSinks(ctx context.Context, out io.Writer) (usecase.Fanout, error) {
	sinks := usecase.Fanout{usecase.NewLogSink(a.logger.With("component", "report"))}
	if out != nil {
		sinks = append(sinks, usecase.NewTextSink(out))
	}

	if dsn := a.cfg.Database.DSN; dsn != "" {
		db, err := storage.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, usecase.NewRepositorySink(repo))
	}

	if tg := a.cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier := telegram.NewNotifier(tg.BotToken, tg.ChatID)
		sinks = append(sinks, usecase.NewNotifierSink(notifier, domain.ParseThreatLevel(tg.MinThreatLevel)))
	}

	if nc := a.cfg.Notifications.NATS; nc.URL != "" {
		publisher, err := bus.Connect(nc.URL, nc.Subject)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, publisher.Close)
		sinks = append(sinks, publisher)
	}

	if a.cfg.ChatGPT.APIKey != "" {
		summarizer, err := llm.NewChatGPTSummarizer(a.cfg.ChatGPT)
		if err != nil {
			return nil, err
		}
		path := a.cfg.Artifacts.SummariesPath
		write := func(entries []usecase.SummaryEntry) error { return storage.WriteJSON(path, entries) }
		sinks = append(sinks, usecase.NewSummarySink(summarizer, write, a.cfg.ChatGPT.MaxItems, a.logger.With("component", "summary")))
	}

	a.logger.Debug("report sinks configured", "count", len(sinks))
	return sinks, nil
}

// RunOnce performs a single pipeline execution and delivers the report.
func (a *Application) RunOnce(ctx context.Context) (domain.RunReport, error) {
	report := a.pipeline.Run(ctx)
	if err := a.sink.Consume(ctx, report); err != nil {
		a.logger.Warn("report delivery failed", "error", err)
	}
	if report.Failed() {
		return report, report.Err
	}
	return report, nil
}

// Scheduler exposes the periodic driver for the monitor command.
func (a *Application) Scheduler() *usecase.Scheduler {
	return a.scheduler
}

// Shutdown stops scheduling and waits for the in-flight run.
func (a *Application) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := a.scheduler.Stop(ctx)
	done := make(chan struct{})
	go func() {
		a.scheduler.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		err = errors.Join(err, fmt.Errorf("in-flight run did not finish: %w", ctx.Err()))
	}
	return err
}

// Close releases connections opened by optional sinks.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
