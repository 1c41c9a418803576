package models

import "github.com/google/uuid"

// Player is one seat at the table. Order in the game's player list is the turn order.
type Player struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	CurrentPoints int       `json:"currentPoints"` // resets every round, may go negative
	TotalPoints   int       `json:"totalPoints"`   // cumulative across rounds
	HasPassed     bool      `json:"hasPassed"`
	IsActive      bool      `json:"isActive"`
}

// NewPlayer returns a fresh player with a random ID and zero scores.
func NewPlayer(name string) *Player {
	return &Player{
		ID:   uuid.New(),
		Name: name,
	}
}
