// Package scheduler runs the periodic background jobs: the nightly coordinate
// backfill that keeps every approved case mappable.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/tracking"
)

const backfillJob = "coordinate_backfill_job"

// Scheduler owns the cron loop. Jobs coordinate across instances through a
// lock collection, so running multiple pods is safe.
type Scheduler struct {
	cron       *cron.Cron
	Tracker    *tracking.Tracker
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a scheduler around the tracker and lock store
func NewScheduler(tracker *tracking.Tracker, lockDB databases.SchedulerLockDatabase) *Scheduler {
	// Heroku-style platforms set DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Tracker:    tracker,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start registers the jobs and begins the cron loop
func (s *Scheduler) Start() {
	// Backfill coordinates for approved cases daily at 3 AM UTC, when the
	// public geocoding providers are quietest
	_, err := s.cron.AddFunc("0 3 * * *", s.runCoordinateBackfill)
	if err != nil {
		zap.S().Errorw("failed to register coordinate backfill job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("background scheduler started")
}

// Stop gracefully stops the scheduler, waiting for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("background scheduler stopped")
}

func (s *Scheduler) runCoordinateBackfill() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.Acquire(ctx, backfillJob, s.instanceID, 15*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for coordinate backfill", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("coordinate backfill already running on another instance, skipping")
		return
	}
	defer s.LockDB.Release(ctx, backfillJob, s.instanceID)

	zap.S().Infow("running coordinate backfill job", "instance", s.instanceID)

	result, err := s.Tracker.BackfillAll(ctx)
	if err != nil {
		zap.S().Errorw("coordinate backfill job failed", "error", err)
		return
	}
	zap.S().Infow("coordinate backfill job finished",
		"total", result.Total,
		"updated", result.Updated,
		"errors", len(result.Errors),
	)
}
