// Package scheduler runs backtest batches on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/signal-backtest/internal/backtest"
)

// ErrBatchInProgress is returned by RunNow while another batch is executing
var ErrBatchInProgress = fmt.Errorf("batch already in progress")

// BatchFunc executes one complete batch
type BatchFunc func(ctx context.Context) (*backtest.BatchReport, error)

// Scheduler manages scheduled batch runs
type Scheduler struct {
	cron            *cron.Cron
	job             BatchFunc
	logger          *logrus.Entry
	mu              sync.RWMutex
	runMu           sync.Mutex
	isRunning       bool
	jobIDs          []cron.EntryID
	batchTimeout    time.Duration
	gracefulTimeout time.Duration
	lastRun         time.Time
	lastErr         error
}

// NewScheduler creates a new scheduler. Each batch is bounded by batchTimeout.
func NewScheduler(job BatchFunc, batchTimeout time.Duration, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.New()
	}
	if batchTimeout <= 0 {
		batchTimeout = 4 * time.Hour
	}
	entry := log.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{entry}), cron.SkipIfStillRunning(cronLogger{entry})),
		),
		job:             job,
		logger:          entry,
		jobIDs:          make([]cron.EntryID, 0),
		batchTimeout:    batchTimeout,
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleBatch registers the batch job under a standard five-field cron expression
func (s *Scheduler) ScheduleBatch(cronExpression string) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return 0, fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.batchTimeout)
		defer cancel()

		if err := s.RunNow(ctx); err != nil {
			s.logger.WithError(err).Error("Scheduled batch failed")
		}
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled backtest batch")
	return entryID, nil
}

// RunNow executes the batch immediately. Overlapping runs are rejected.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if !s.runMu.TryLock() {
		return ErrBatchInProgress
	}
	defer s.runMu.Unlock()

	started := time.Now()
	s.logger.Info("Starting backtest batch")

	report, err := s.job(ctx)

	s.mu.Lock()
	s.lastRun = started
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		return err
	}

	fields := logrus.Fields{"duration_ms": time.Since(started).Milliseconds()}
	if report != nil {
		fields["signals"] = report.Summary.TotalSignals
		fields["closed_trades"] = report.Summary.ClosedTrades
	}
	s.logger.WithFields(fields).Info("Backtest batch completed")
	return nil
}

// LastRun reports when the most recent batch started and how it ended
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastErr
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running batch to finish, up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	stopped := s.cron.Stop()
	s.mu.Unlock()

	// a running batch still needs mu to record its outcome
	select {
	case <-stopped.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("timed out waiting for running batch after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled batch
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}

// RemoveJob removes a scheduled batch
func (s *Scheduler) RemoveJob(jobID cron.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}

	s.cron.Remove(jobID)
	for i, id := range s.jobIDs {
		if id == jobID {
			s.jobIDs = append(s.jobIDs[:i], s.jobIDs[i+1:]...)
			break
		}
	}
	s.logger.WithField("job_id", jobID).Info("Removed job")
	return nil
}

// cronLogger adapts logrus to cron.Logger
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(toFields(keysAndValues)).Error(msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
