package domain

import "time"

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
	SessionStatusExpired   SessionStatus = "EXPIRED"
)

// IsTerminal reports whether no further transitions are permitted.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled || s == SessionStatusExpired
}

type RentalSession struct {
	ID       string `json:"id"`
	BranchID string `json:"branch_id"`
	GameID   string `json:"game_id"`

	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`

	PlannedDurationMinutes int32     `json:"planned_duration_minutes"`
	ExpiresAt              time.Time `json:"expires_at"`

	// Price snapshot field — captured from the game at session creation time.
	// All cost calculations use this snapshot, not the live game rate.
	BaseRateCents int64 `json:"base_rate_cents"`

	TotalAmountCents   int64 `json:"total_amount_cents"`
	DepositAmountCents int64 `json:"deposit_amount_cents"`
	RefundAmountCents  int64 `json:"refund_amount_cents"`

	TerminalAt     *time.Time `json:"terminal_at,omitempty"`
	TerminalReason string     `json:"terminal_reason,omitempty"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// RemainingMinutes returns whole minutes until expiry, rounded up,
// never negative.
func (s *RentalSession) RemainingMinutes(now time.Time) int32 {
	d := s.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	mins := int32(d / time.Minute)
	if d%time.Minute > 0 {
		mins++
	}
	return mins
}
