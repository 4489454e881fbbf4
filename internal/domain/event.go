package domain

import "time"

// Event is published after a successful commit.
type Event struct {
	Topic      string    `json:"topic"`
	Entity     *Entity   `json:"entity"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
