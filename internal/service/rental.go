package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"playpark-backend/internal/domain"
	"playpark-backend/internal/logger"
	"playpark-backend/internal/repository"
	"playpark-backend/internal/utils"
)

type rentalService struct {
	sessionRepo repository.SessionRepository
	gameRepo    repository.GameRepository
	branchRepo  repository.BranchRepository
	sched       ExpirySchedule
	sink        domain.EventSink

	// Transitions racing on the same session (operator cancel vs the
	// scheduler's expiry) serialize on a per-session mutex; whichever
	// acquires it first wins, the loser observes the terminal state.
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	now func() time.Time
}

func NewRentalService(
	sessionRepo repository.SessionRepository,
	gameRepo repository.GameRepository,
	branchRepo repository.BranchRepository,
	sched ExpirySchedule,
	sink domain.EventSink,
) RentalService {
	return &rentalService{
		sessionRepo: sessionRepo,
		gameRepo:    gameRepo,
		branchRepo:  branchRepo,
		sched:       sched,
		sink:        sink,
		locks:       make(map[string]*sync.Mutex),
		now:         time.Now,
	}
}

func (s *rentalService) lockFor(sessionID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.locks[sessionID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[sessionID] = mu
	}
	return mu
}

func (s *rentalService) Create(ctx context.Context, branchID, gameID string, durationMinutes int32, depositCents int64) (*domain.RentalSession, error) {
	if _, err := s.branchRepo.GetByID(ctx, branchID); err != nil {
		return nil, err
	}
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	total, err := utils.PriceFor(game.BaseRateCents, durationMinutes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &domain.RentalSession{
		ID:                     uuid.NewString(),
		BranchID:               branchID,
		GameID:                 gameID,
		Status:                 domain.SessionStatusActive,
		StartedAt:              now,
		PlannedDurationMinutes: durationMinutes,
		ExpiresAt:              now.Add(time.Duration(durationMinutes) * time.Minute),
		BaseRateCents:          game.BaseRateCents,
		TotalAmountCents:       total,
		DepositAmountCents:     depositCents,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	// Announce before arming the deadline: the scheduler's tick cadence
	// must never emit for a session whose started event is still pending.
	s.publish(session, domain.EventStarted, now, 0)
	s.sched.Schedule(session.ID, session.BranchID, session.GameID, session.ExpiresAt)

	logger.Info("Rental session started",
		"session_id", session.ID, "branch_id", branchID, "game_id", gameID,
		"duration_minutes", durationMinutes, "total_cents", total)
	return session, nil
}

func (s *rentalService) Extend(ctx context.Context, sessionID string, extraMinutes int32) (*domain.RentalSession, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusActive {
		logger.Debug("Extend rejected, session not active", "session_id", sessionID, "status", session.Status)
		return nil, domain.ErrNotActive
	}

	cost, err := utils.ExtensionCost(session.BaseRateCents, extraMinutes)
	if err != nil {
		return nil, err
	}

	updated := *session
	updated.PlannedDurationMinutes += extraMinutes
	updated.ExpiresAt = updated.ExpiresAt.Add(time.Duration(extraMinutes) * time.Minute)
	updated.TotalAmountCents += cost

	if err := s.sessionRepo.Update(ctx, &updated); err != nil {
		// Failed save aborts the transition; the old deadline stays.
		return nil, err
	}

	s.sched.Schedule(updated.ID, updated.BranchID, updated.GameID, updated.ExpiresAt)
	s.publish(&updated, domain.EventExtended, s.now(), 0)

	logger.Info("Rental session extended",
		"session_id", sessionID, "extra_minutes", extraMinutes,
		"surcharge_cents", cost, "expires_at", updated.ExpiresAt)
	return &updated, nil
}

func (s *rentalService) Cancel(ctx context.Context, sessionID string, now time.Time) (*domain.RentalSession, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusActive {
		logger.Debug("Cancel rejected, session already terminal", "session_id", sessionID, "status", session.Status)
		return nil, domain.ErrAlreadyTerminal
	}

	refund := utils.RefundFor(session, now)

	updated := *session
	updated.Status = domain.SessionStatusCancelled
	updated.RefundAmountCents = refund
	updated.TotalAmountCents -= refund
	updated.TerminalAt = &now
	updated.TerminalReason = "cancelled by operator"

	if err := s.sessionRepo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.sched.Cancel(sessionID)
	s.publish(&updated, domain.EventCancelled, now, refund)

	logger.Info("Rental session cancelled",
		"session_id", sessionID, "refund_cents", refund, "charged_cents", updated.TotalAmountCents)
	return &updated, nil
}

func (s *rentalService) Complete(ctx context.Context, sessionID string, now time.Time, finalAmountOverride *int64) (*domain.RentalSession, error) {
	if finalAmountOverride != nil && *finalAmountOverride < 0 {
		return nil, fmt.Errorf("final amount override must be non-negative")
	}

	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusActive {
		logger.Debug("Complete rejected, session already terminal", "session_id", sessionID, "status", session.Status)
		return nil, domain.ErrAlreadyTerminal
	}

	updated := *session
	updated.Status = domain.SessionStatusCompleted
	if finalAmountOverride != nil {
		updated.TotalAmountCents = *finalAmountOverride
	}
	updated.TerminalAt = &now
	updated.TerminalReason = "completed by operator"

	if err := s.sessionRepo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.sched.Cancel(sessionID)
	s.publish(&updated, domain.EventCompleted, now, 0)

	logger.Info("Rental session completed",
		"session_id", sessionID, "total_cents", updated.TotalAmountCents)
	return &updated, nil
}

// HandleExpiry is invoked by the scheduler when a deadline fires. The
// session may have been cancelled or completed in the meantime; that
// race is benign and resolves to a no-op here.
func (s *rentalService) HandleExpiry(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			logger.Debug("Expiry fired for unknown session", "session_id", sessionID)
			return
		}
		logger.Error("Failed to load session on expiry", "session_id", sessionID, "error", err)
		return
	}
	if session.Status != domain.SessionStatusActive {
		logger.Debug("Expiry fired for terminal session, ignoring", "session_id", sessionID, "status", session.Status)
		return
	}
	if session.ExpiresAt.After(s.now()) {
		// An extension won the race after this fire was already in
		// flight. The persisted deadline is authoritative; reinstate it.
		logger.Debug("Expiry fired for extended session, rescheduling",
			"session_id", sessionID, "expires_at", session.ExpiresAt)
		s.sched.Schedule(session.ID, session.BranchID, session.GameID, session.ExpiresAt)
		return
	}

	now := s.now()
	updated := *session
	updated.Status = domain.SessionStatusExpired
	updated.TerminalAt = &now
	updated.TerminalReason = "planned duration elapsed"

	if err := s.sessionRepo.Update(ctx, &updated); err != nil {
		// Leave the row ACTIVE; the stale-session sweep retries later.
		logger.Error("Failed to persist expiry", "session_id", sessionID, "error", err)
		return
	}

	s.sched.Cancel(sessionID)
	s.publish(&updated, domain.EventExpired, now, 0)

	logger.Info("Rental session expired", "session_id", sessionID, "branch_id", updated.BranchID)
}

func (s *rentalService) Get(ctx context.Context, sessionID string) (*domain.RentalSession, error) {
	return s.sessionRepo.GetByID(ctx, sessionID)
}

func (s *rentalService) ListByBranch(ctx context.Context, branchID, status string, page, pageSize int32) ([]domain.RentalSession, int32, error) {
	return s.sessionRepo.ListByBranch(ctx, branchID, status, page, pageSize)
}

// Restore reschedules every persisted ACTIVE session at its original
// deadline. Sessions already past their deadline fire immediately.
func (s *rentalService) Restore(ctx context.Context) error {
	sessions, err := s.sessionRepo.ListActive(ctx)
	if err != nil {
		return err
	}
	for i := range sessions {
		sess := &sessions[i]
		s.sched.Schedule(sess.ID, sess.BranchID, sess.GameID, sess.ExpiresAt)
	}
	logger.Info("Rebuilt expiration schedule", "active_sessions", len(sessions))
	return nil
}

func (s *rentalService) publish(session *domain.RentalSession, eventType domain.EventType, at time.Time, refund int64) {
	s.sink.Publish(session.BranchID, domain.Event{
		Type:             eventType,
		SessionID:        session.ID,
		BranchID:         session.BranchID,
		GameID:           session.GameID,
		Status:           session.Status,
		At:               at,
		TotalAmountCents: session.TotalAmountCents,
		RefundCents:      refund,
		ExpiresAt:        session.ExpiresAt,
	})
}
