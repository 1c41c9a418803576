// internal/game/events.go
package game

import "github.com/Lukasz11111/triominos/internal/models"

// GameEventType is an enum-like type for broadcasting game changes.
type GameEventType string

const (
	EventState           GameEventType = "state"             // full snapshot after every accepted action
	EventHistoryEntry    GameEventType = "history_entry"     // one new ledger entry
	EventAllPassed       GameEventType = "all_passed"        // every player passed; round-end losses expected
	EventRoundSummary    GameEventType = "round_summary"     // round over; standings attached
	EventWinLimitReached GameEventType = "win_limit_reached" // someone is at or above the win limit
)

// GameEvent holds data about an event that can be broadcast to the clients in a consistent format.
type GameEvent struct {
	Type    GameEventType          `json:"type"`
	State   *State                 `json:"state,omitempty"`
	Entry   *models.HistoryEntry   `json:"entry,omitempty"`
	Players []models.Player        `json:"players,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}
