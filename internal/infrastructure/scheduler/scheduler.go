// Package scheduler runs the periodic import and purge jobs on cron
// schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/amws/backend/internal/application/importer"
	"github.com/amws/backend/internal/application/retention"
	"github.com/amws/backend/internal/infrastructure/config"
)

// jobTimeout bounds a single scheduled run so a hung marketplace call
// cannot pile up overlapping jobs.
const jobTimeout = 30 * time.Minute

// Importer is the slice of the import service the scheduler drives
type Importer interface {
	ImportAll(ctx context.Context, opts importer.ImportOptions) (importer.Summary, error)
}

// Purger is the slice of the retention service the scheduler drives
type Purger interface {
	Purge(ctx context.Context, opts retention.PurgeOptions) (retention.PurgeResult, error)
}

// Scheduler owns the cron runner and the jobs registered on it
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New creates a scheduler. Panicking jobs are recovered and logged so a
// single bad run does not take the process down.
func New(logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// RegisterImport schedules the periodic order import. A disabled config
// registers nothing.
func (s *Scheduler) RegisterImport(cfg config.CronConfig, svc Importer) error {
	if !cfg.Status {
		s.logger.Info("periodic order import is disabled")
		return nil
	}

	_, err := s.cron.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		summary, err := svc.ImportAll(ctx, importer.ImportOptions{Limit: cfg.Limit})
		if err != nil {
			s.logger.Error("scheduled order import failed", zap.Error(err))
			return
		}
		s.logger.Info("scheduled order import finished",
			zap.Int("stores", summary.Stores),
			zap.Int("skipped_stores", summary.SkippedStores),
			zap.Int("imported", summary.Imported),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed),
		)
	})
	if err != nil {
		return err
	}

	s.logger.Info("periodic order import registered",
		zap.String("schedule", cfg.Schedule),
		zap.Int("limit", cfg.Limit))
	return nil
}

// RegisterPurge schedules the periodic order purge. A disabled purge
// cron registers nothing. The purge interval comes from the purge
// config, not from the schedule.
func (s *Scheduler) RegisterPurge(cfg config.PurgeConfig, svc Purger) error {
	if !cfg.Cron.Status {
		s.logger.Info("periodic order purge is disabled")
		return nil
	}

	_, err := s.cron.AddFunc(cfg.Cron.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		result, err := svc.Purge(ctx, retention.PurgeOptions{Limit: cfg.Cron.Limit})
		if err != nil {
			s.logger.Error("scheduled order purge failed", zap.Error(err))
			return
		}
		s.logger.Info("scheduled order purge finished",
			zap.Int("deleted", result.Deleted),
			zap.Int("profiles", result.Profiles),
		)
	})
	if err != nil {
		return err
	}

	s.logger.Info("periodic order purge registered",
		zap.String("schedule", cfg.Cron.Schedule),
		zap.Int("limit", cfg.Cron.Limit))
	return nil
}

// Start begins running registered jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// cronLogger adapts zap to the cron logger interface
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
