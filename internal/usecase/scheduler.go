package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

// Runner executes one monitoring pass.
type Runner interface {
	Run(ctx context.Context) domain.RunReport
}

// Scheduler wires the interval driver with the pipeline: Idle/Running state,
// at most one run in flight, and delivery of each report to a sink.
type Scheduler struct {
	driver ports.Scheduler
	runner Runner
	sink   ports.ReportSink
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	interval time.Duration
	runCtx   context.Context

	busy     atomic.Bool
	inflight chan struct{}
}

// NewScheduler returns an Idle scheduler with the default interval.
func NewScheduler(driver ports.Scheduler, runner Runner, sink ports.ReportSink, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		driver:   driver,
		runner:   runner,
		sink:     sink,
		logger:   logger,
		interval: domain.DefaultIntervalSeconds * time.Second,
	}
}

// Start moves Idle to Running, triggers one run immediately and arms the
// driver. Runs use ctx, so cancelling it aborts the in-flight fetch.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return domain.ErrInvalidInterval
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	if err := s.driver.Start(ctx, interval, s.tick); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("start driver: %w", err)
	}
	s.running = true
	s.interval = interval
	s.runCtx = ctx
	s.mu.Unlock()

	s.logger.Info("monitor started", "interval", interval)
	s.tick(time.Now())
	return nil
}

// SetInterval records the new period and, while Running, re-arms the driver
// without triggering an extra run.
func (s *Scheduler) SetInterval(interval time.Duration) error {
	if interval <= 0 {
		return domain.ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.interval = interval
	if !s.running {
		return nil
	}
	if err := s.driver.Reset(interval); err != nil {
		return fmt.Errorf("reset driver: %w", err)
	}
	s.logger.Info("monitor interval changed", "interval", interval)
	return nil
}

// Stop moves Running to Idle. An in-flight run is allowed to finish; use
// Wait to block on it. Stopping an Idle scheduler is a no-op.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("monitor stopped")
	return s.driver.Stop(ctx)
}

// State snapshots the monitor state.
func (s *Scheduler) State() domain.MonitorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.MonitorState{
		IntervalSeconds: int(s.interval / time.Second),
		Running:         s.running,
	}
}

// Interval returns the configured period.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Wait blocks until the in-flight run, if any, has delivered its report.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.inflight
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// tick starts a run unless Idle or a run is already in flight.
func (s *Scheduler) tick(now time.Time) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.mu.Unlock()
		s.logger.Warn("previous run still in progress, tick skipped", "tick", now)
		return
	}
	ctx := s.runCtx
	done := make(chan struct{})
	s.inflight = done
	s.mu.Unlock()

	go s.work(ctx, done)
}

func (s *Scheduler) work(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.busy.Store(false)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("monitor run panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	report := s.runner.Run(ctx)
	if s.sink == nil {
		return
	}
	if err := s.sink.Consume(ctx, report); err != nil {
		s.logger.Warn("report delivery failed", "error", err)
	}
}
