package domain

import "time"

type GameStatus string

const (
	GameStatusAvailable   GameStatus = "AVAILABLE"
	GameStatusMaintenance GameStatus = "MAINTENANCE"
	GameStatusRetired     GameStatus = "RETIRED"
)

// Game is a physical electric toy/vehicle available for timed rental.
// Master data is owned by the admin CRUD surface; the lifecycle engine
// only reads the base rate snapshot from it.
type Game struct {
	ID       string     `json:"id"`
	BranchID string     `json:"branch_id"`
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Status   GameStatus `json:"status"`

	// BaseRateCents is the price of the base 15-minute block.
	BaseRateCents int64 `json:"base_rate_cents"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}
