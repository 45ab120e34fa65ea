package domain

import "time"

// Branch is a retail location. Master data owned by the admin CRUD
// surface; the engine reads it for validation and escalation routing.
type Branch struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Address  string `json:"address"`
	OpsEmail string `json:"ops_email"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}
