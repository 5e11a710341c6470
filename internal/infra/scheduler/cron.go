package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"rentacar/internal/app/schedule"
)

// Cron runs schedule.Jobs on standard five-field specs in UTC. A job that is
// still running when its next tick fires is skipped.
type Cron struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

// New builds a scheduler; timeout bounds every job run, zero means none.
func New(logger *slog.Logger, timeout time.Duration) *Cron {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)
	ctx, cancel := context.WithCancel(context.Background())
	return &Cron{cron: c, logger: logger, timeout: timeout, ctx: ctx, cancel: cancel}
}

func (s *Cron) Every(spec string, job schedule.Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(job) })
	if err != nil {
		return err
	}
	s.logger.Info("job scheduled", "job", job.Name(), "spec", spec)
	return nil
}

// Start runs the scheduler in the background. Cancelling ctx cancels jobs
// in flight; Stop must still be called to wait for them.
func (s *Cron) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()
	s.cron.Start()
}

func (s *Cron) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	defer s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Cron) run(job schedule.Job) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	started := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name(), "error", err, "duration", time.Since(started))
		return
	}
	s.logger.Debug("job finished", "job", job.Name(), "duration", time.Since(started))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}

var _ schedule.Scheduler = (*Cron)(nil)
