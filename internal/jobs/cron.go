package jobs

import (
	"time"

	"github.com/robfig/cron/v3"

	"playpark-backend/internal/logger"
)

// Cron manages the maintenance-job schedule
type Cron struct {
	cron   *cron.Cron
	runner *JobRunner
}

// NewCron creates a cron scheduler with the provided job runner
func NewCron(runner *JobRunner) *Cron {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	jc := &Cron{
		cron:   c,
		runner: runner,
	}

	jc.registerJobs()
	return jc
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (c *Cron) registerJobs() {
	cfg := c.runner.Config().Jobs

	_, err := c.cron.AddFunc(cfg.SweepStaleSessions, c.runner.SweepStaleActiveSessions)
	if err != nil {
		logger.Error("Failed to register SweepStaleActiveSessions job", "error", err)
	}

	_, err = c.cron.AddFunc(cfg.ReportActiveCounts, c.runner.ReportActiveCounts)
	if err != nil {
		logger.Error("Failed to register ReportActiveCounts job", "error", err)
	}

	logger.Info("All maintenance jobs registered")
}

// Start begins the cron scheduler
func (c *Cron) Start() {
	c.cron.Start()
	logger.Info("Maintenance job scheduler started")
}

// Stop gracefully stops the cron scheduler
func (c *Cron) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
	logger.Info("Maintenance job scheduler stopped")
}
