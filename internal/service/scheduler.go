package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/unclebandit/hoperise-backend/internal/logger"
)

// Scheduler runs the periodic reconcile job.
type Scheduler struct {
	cron       *cron.Cron
	reconciler *Reconciler
	schedule   string
	logger     *zap.Logger
}

func NewScheduler(r *Reconciler, schedule string, log *zap.Logger) *Scheduler {
	log = logger.OrNop(log)
	cronLogger := cron.PrintfLogger(zap.NewStdLog(log))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	return &Scheduler{
		cron:       c,
		reconciler: r,
		schedule:   schedule,
		logger:     log,
	}
}

// Start registers the job and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runReconcile); err != nil {
		s.logger.Error("failed to schedule reconcile job", zap.String("schedule", s.schedule), zap.Error(err))
		return err
	}
	s.logger.Info("scheduled reconcile job", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop halts the scheduler; the returned context is done once a running job
// finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := s.reconciler.Reconcile(ctx); err != nil {
		s.logger.Error("reconcile job failed", zap.Error(err))
	}
}
