package jobs

import (
	"playpark-backend/internal/config"
	"playpark-backend/internal/logger"
	"playpark-backend/internal/repository"
	"playpark-backend/internal/service"
)

// JobRunner coordinates all scheduled maintenance jobs
type JobRunner struct {
	sessionRepo repository.SessionRepository
	rentalSvc   service.RentalService
	config      *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(sessionRepo repository.SessionRepository, rentalSvc service.RentalService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		sessionRepo: sessionRepo,
		rentalSvc:   rentalSvc,
		config:      cfg,
	}
}

// Config returns the application configuration
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every maintenance job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.SweepStaleActiveSessions()
	jr.ReportActiveCounts()
}
