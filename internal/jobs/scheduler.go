// Package jobs runs the background reconciliation work on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clinicbook/internal/pkg/logging"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Func func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]cron.Job
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	logger = logging.OrNop(logger).Named("jobs")
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]cron.Job),
	}
}

// Every schedules fn under a standard cron spec or a descriptor such as
// "@every 5m". Overlapping runs of the same job are skipped.
func (s *Scheduler) Every(spec, name string, fn Func) error {
	job := cron.FuncJob(func() { s.run(name, fn) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already scheduled", name)
	}
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("schedule %q with %q: %w", name, spec, err)
	}
	s.jobs[name] = job
	return nil
}

// RunNow runs a scheduled job once in the calling goroutine.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not scheduled", name)
	}
	job.Run()
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling, cancels running jobs and waits for them up to
// timeout.
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		s.logger.Warn("jobs still running at shutdown")
	}
}

func (s *Scheduler) run(name string, fn Func) {
	start := time.Now()
	if err := fn(s.ctx); err != nil {
		s.logger.Error("job failed", zap.String("job", name), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	s.logger.Debug("job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

// cronLogger adapts zap to cron's logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
