package service

import (
	"context"
	"time"

	"playpark-backend/internal/domain"
)

// RentalService is the rental lifecycle engine: the single writer of
// session state. Every transition validates, prices, persists, updates
// the expiration schedule and announces the result, in that order.
type RentalService interface {
	// Create starts a new ACTIVE session for a game at a branch.
	// depositCents is informational; the engine records it unchanged.
	Create(ctx context.Context, branchID, gameID string, durationMinutes int32, depositCents int64) (*domain.RentalSession, error)
	// Extend pushes the deadline of an ACTIVE session forward and
	// charges the extension surcharge.
	Extend(ctx context.Context, sessionID string, extraMinutes int32) (*domain.RentalSession, error)
	// Cancel terminates an ACTIVE session early with a pro-rated refund.
	Cancel(ctx context.Context, sessionID string, now time.Time) (*domain.RentalSession, error)
	// Complete is the operator-initiated happy-path termination.
	// finalAmountOverride, when non-nil, replaces the accumulated total.
	Complete(ctx context.Context, sessionID string, now time.Time, finalAmountOverride *int64) (*domain.RentalSession, error)
	// Get reads a single session.
	Get(ctx context.Context, sessionID string) (*domain.RentalSession, error)
	// ListByBranch reads a branch's sessions, optionally filtered by status.
	ListByBranch(ctx context.Context, branchID, status string, page, pageSize int32) ([]domain.RentalSession, int32, error)

	// HandleExpiry is the scheduler's expire callback. A session that
	// reached a terminal state before the deadline fired is a silent
	// no-op, not an error.
	HandleExpiry(sessionID string)
	// Restore rebuilds the expiration schedule from persisted ACTIVE
	// sessions. Called once at startup.
	Restore(ctx context.Context) error
}

// ExpirySchedule is the slice of the expiration scheduler the engine
// drives: one live deadline per active session.
type ExpirySchedule interface {
	Schedule(sessionID, branchID, gameID string, expiresAt time.Time)
	Cancel(sessionID string)
}
