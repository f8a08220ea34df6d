package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler runs the ingestion pipeline on a fixed interval.
type Scheduler struct {
	pipeline *Pipeline
	interval time.Duration
	pageCap  int
	timeout  time.Duration
	logger   *logrus.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(pipeline *Pipeline, interval time.Duration, pageCap int, timeout time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		pipeline: pipeline,
		interval: interval,
		pageCap:  pageCap,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start launches the worker. It is a no-op when the interval is not positive
// or the worker is already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interval <= 0 || s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	s.logger.WithField("interval", s.interval.String()).Info("Starting ingestion scheduler...")
}

// Stop cancels the worker and waits for an in-flight run to wind down.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("Ingestion scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if _, err := s.pipeline.Run(runCtx, s.pageCap); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.logger.Debug("Skipping scheduled ingestion, a run is in progress")
			return
		}
		s.logger.WithError(err).Error("Scheduled ingestion failed")
	}
}
