package scheduler

import (
	"context"
	"sync"
	"time"

	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

// TickerScheduler drives a job from a re-armable time.Ticker. The job is
// called synchronously from the ticker goroutine, so it must return quickly.
type TickerScheduler struct {
	mu     sync.Mutex
	ticker *time.Ticker
	stop   chan struct{}
	done   chan struct{}
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler builds an idle scheduler.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Start arms the ticker. The first job call happens one interval from now.
func (s *TickerScheduler) Start(ctx context.Context, interval time.Duration, job func(time.Time)) error {
	if interval <= 0 {
		return domain.ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running() {
		return domain.ErrAlreadyRunning
	}

	ticker := time.NewTicker(interval)
	stop := make(chan struct{})
	done := make(chan struct{})
	s.ticker, s.stop, s.done = ticker, stop, done

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case t := <-ticker.C:
				if job != nil {
					job(t)
				}
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Reset re-arms the ticker with a new period without firing.
func (s *TickerScheduler) Reset(interval time.Duration) error {
	if interval <= 0 {
		return domain.ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running() {
		s.ticker.Reset(interval)
	}
	return nil
}

// Stop halts the ticker goroutine and waits for it to exit.
func (s *TickerScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running() {
		s.mu.Unlock()
		return nil
	}
	close(s.stop)
	done := s.done
	s.ticker, s.stop, s.done = nil, nil, nil
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// running must be called with mu held. A loop that exited because its
// context was cancelled counts as stopped.
func (s *TickerScheduler) running() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}
