package monitor

import "time"

// Check is the last result for one dependency. Enabled is false when the
// dependency is not configured at all.
type Check struct {
	Enabled bool   `json:"enabled"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type Status struct {
	PostgreSQL Check     `json:"postgresql"`
	Redis      Check     `json:"redis"`
	Outbox     Check     `json:"outbox"`
	OutboxSize int       `json:"outbox_size"`
	LastCheck  time.Time `json:"last_check"`
}
