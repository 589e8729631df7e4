// Package scheduler runs the pool of concurrent indexing workers.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clipseek/clipseek/internal/pipeline"
	"github.com/clipseek/clipseek/internal/storage"
)

// Scheduler drives claimed video records through the pipeline with a fixed
// pool of worker loops sharing the storage claim primitive.
type Scheduler struct {
	store        storage.Storage
	runner       *pipeline.Runner
	workers      int
	pollInterval time.Duration
	idleDelay    time.Duration
	startupDelay time.Duration
	logger       *zap.Logger
}

// Options configures a Scheduler.
type Options struct {
	Workers      int
	PollInterval time.Duration
	IdleDelay    time.Duration
	StartupDelay time.Duration
}

// NewScheduler creates a scheduler.
func NewScheduler(store storage.Storage, runner *pipeline.Runner, opts Options, logger *zap.Logger) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}
	if opts.IdleDelay <= 0 {
		opts.IdleDelay = 250 * time.Millisecond
	}
	return &Scheduler{
		store:        store,
		runner:       runner,
		workers:      opts.Workers,
		pollInterval: opts.PollInterval,
		idleDelay:    opts.IdleDelay,
		startupDelay: opts.StartupDelay,
		logger:       logger,
	}
}

// Run releases stale claims, then runs the worker pool until ctx is
// cancelled. Workers stop between chain passes; in-flight collaborator calls
// finish or time out naturally.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.startupDelay > 0 {
		s.logger.Info("starting background indexer", zap.Duration("delay", s.startupDelay))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.startupDelay):
		}
	}

	// Claims held by a crashed process would otherwise be unreachable forever.
	if err := s.store.ReleaseAllClaims(ctx); err != nil {
		return err
	}
	s.logger.Info("background indexer running", zap.Int("workers", s.workers))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.workerLoop(ctx, n)
		}(i)
	}
	wg.Wait()
	return ctx.Err()
}

func (s *Scheduler) workerLoop(ctx context.Context, n int) {
	for {
		if ctx.Err() != nil {
			return
		}
		rec, err := s.store.ClaimNext(ctx)
		if err != nil {
			s.logger.Error("claim failed", zap.Int("worker", n), zap.Error(err))
			if !sleep(ctx, s.idleDelay) {
				return
			}
			continue
		}
		if rec == nil {
			if !sleep(ctx, s.idleDelay) {
				return
			}
			continue
		}

		s.runner.RunAll(ctx, rec)

		// Failed steps already released the claim; releasing again is harmless.
		if err := s.store.ReleaseClaim(ctx, rec.ID); err != nil {
			s.logger.Error("release claim failed",
				zap.String("video_id", rec.ID), zap.Error(err))
		}
		if !sleep(ctx, s.pollInterval) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
