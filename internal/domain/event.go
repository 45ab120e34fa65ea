package domain

import "time"

type EventType string

const (
	EventStarted   EventType = "started"
	EventTick      EventType = "tick"
	EventWarning   EventType = "warning"
	EventExtended  EventType = "extended"
	EventCancelled EventType = "cancelled"
	EventCompleted EventType = "completed"
	EventExpired   EventType = "expired"
)

// Event is one timer-state update for a branch's front-of-house
// displays. Events for a given session are published in causal order.
type Event struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"session_id"`
	BranchID  string        `json:"branch_id"`
	GameID    string        `json:"game_id,omitempty"`
	Status    SessionStatus `json:"status,omitempty"`
	At        time.Time     `json:"at"`

	// RemainingMinutes is set on tick and warning events.
	RemainingMinutes int32 `json:"remaining_minutes,omitempty"`

	// Monetary fields, set where the transition touched money.
	TotalAmountCents int64 `json:"total_amount_cents,omitempty"`
	RefundCents      int64 `json:"refund_cents,omitempty"`

	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// EventSink delivers events to the current subscribers of a branch.
// Delivery is best effort and in publish order; implementations must
// never block the caller.
type EventSink interface {
	Publish(branchID string, event Event)
}
