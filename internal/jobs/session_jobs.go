package jobs

import (
	"context"
	"time"

	"playpark-backend/internal/logger"
)

// SweepStaleActiveSessions expires ACTIVE sessions whose deadline is
// well in the past. The in-process scheduler normally handles expiry;
// this is the safety net for sessions whose callback was lost, e.g. a
// crash between a deadline firing and the row being persisted. Going
// through the engine keeps the state machine and event stream honest.
func (jr *JobRunner) SweepStaleActiveSessions() {
	jr.runWithRecovery("SweepStaleActiveSessions", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		sessions, err := jr.sessionRepo.ListActive(ctx)
		if err != nil {
			logger.Error("Failed to list active sessions", "error", err)
			return
		}

		grace := time.Duration(jr.config.Jobs.SweepGraceMinutes) * time.Minute
		cutoff := time.Now().Add(-grace)

		count := 0
		for i := range sessions {
			s := &sessions[i]
			if s.ExpiresAt.After(cutoff) {
				continue
			}
			logger.Warn("Found stale active session, expiring",
				"session_id", s.ID, "branch_id", s.BranchID, "expires_at", s.ExpiresAt)
			jr.rentalSvc.HandleExpiry(s.ID)
			count++
		}

		if count > 0 {
			logger.Info("Swept stale active sessions", "count", count)
		}
	})
}

// ReportActiveCounts logs the number of active sessions per branch.
func (jr *JobRunner) ReportActiveCounts() {
	jr.runWithRecovery("ReportActiveCounts", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		sessions, err := jr.sessionRepo.ListActive(ctx)
		if err != nil {
			logger.Error("Failed to list active sessions", "error", err)
			return
		}

		counts := make(map[string]int)
		for _, s := range sessions {
			counts[s.BranchID]++
		}

		logger.Info("Active session counts", "total", len(sessions))
		for branchID, n := range counts {
			logger.Info("Branch active sessions", "branch_id", branchID, "count", n)
		}
	})
}
