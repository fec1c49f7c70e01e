package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned when a run is requested while one is active.
var ErrAlreadyRunning = errors.New("sync already running")

// Runner performs one import.
type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// Scheduler runs the import periodically and on demand. Runs started
// through the same scheduler never overlap.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
	running  atomic.Bool
}

// NewScheduler creates a scheduler. A non-positive interval defaults to two minutes.
func NewScheduler(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &Scheduler{runner: runner, interval: interval, logger: logger}
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// RunOnce performs a run unless one is already in progress.
func (s *Scheduler) RunOnce(ctx context.Context) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer s.running.Store(false)
	return s.runner.Run(ctx)
}

// Trigger starts a run in the background and returns once it has been
// claimed. ctx bounds the run itself, so callers pass a context that
// outlives their request.
func (s *Scheduler) Trigger(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	go func() {
		defer s.running.Store(false)
		report, err := s.runner.Run(ctx)
		if err != nil {
			s.logger.Error("Triggered sync failed", zap.Error(err))
			return
		}
		s.logger.Info("Triggered sync finished",
			zap.Int("species_inserted", report.SpeciesInserted),
			zap.Int("observations_inserted", report.ObservationsInserted),
			zap.Int("comments_inserted", report.CommentsInserted),
		)
	}()
	return nil
}

// Start runs the import every interval until ctx is done. A tick that
// arrives while a run is active is dropped.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sync scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				if errors.Is(err, ErrAlreadyRunning) {
					s.logger.Debug("Skipping tick, previous run still active")
					continue
				}
				if ctx.Err() != nil {
					return
				}
				s.logger.Error("Scheduled sync failed", zap.Error(err))
			}
		}
	}
}
