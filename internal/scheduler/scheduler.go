// Package scheduler refreshes the odds cache on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ev-parlay/internal/oddsapi"
)

// Refresher reloads the odds slate from its upstream
type Refresher interface {
	Refresh(ctx context.Context) ([]oddsapi.Event, error)
}

var (
	ErrRunning   = errors.New("scheduler is already running")
	ErrNoJobs    = errors.New("no jobs scheduled")
	ErrNoRefresh = errors.New("no refresher configured")
)

// Scheduler manages the scheduled odds refresh job
type Scheduler struct {
	cron       *cron.Cron
	refresher  Refresher
	logger     logrus.FieldLogger
	jobTimeout time.Duration

	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
	lastRun   time.Time
	lastErr   error
}

// NewScheduler creates a new scheduler
func NewScheduler(refresher Refresher, logger logrus.FieldLogger) *Scheduler {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		refresher:  refresher,
		logger:     logger,
		jobTimeout: 2 * time.Minute,
	}
}

// ScheduleOddsRefresh refreshes the odds cache on the given cron expression
func (s *Scheduler) ScheduleOddsRefresh(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job: %w", ErrRunning)
	}
	if s.refresher == nil {
		return ErrNoRefresh
	}

	entryID, err := s.cron.AddFunc(cronExpression, s.refreshOdds)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled odds refresh")
	return nil
}

func (s *Scheduler) refreshOdds() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	events, err := s.refresher.Refresh(ctx)

	s.mu.Lock()
	s.lastRun = start
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).Error("Scheduled odds refresh failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"events":      len(events),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Scheduled odds refresh completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrRunning
	}
	if len(s.jobIDs) == 0 {
		return ErrNoJobs
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// LastRun returns when the refresh job last ran and its error
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastErr
}

// NextRun returns the time of the next scheduled job run
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	next := time.Time{}
	for _, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}
