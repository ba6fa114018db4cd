package models

import "github.com/google/uuid"

// Player is one seat at the physical table. Hand order is insertion order and
// carries no game meaning.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Hand []*Card   `json:"hand"`
}
