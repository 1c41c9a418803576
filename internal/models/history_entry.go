package models

import "github.com/google/uuid"

// EntryType tags what kind of scoring event a HistoryEntry records.
type EntryType string

const (
	EntryAdd        EntryType = "add"
	EntrySubtract   EntryType = "subtract"
	EntryManualEdit EntryType = "manual_edit"
	EntryVictory    EntryType = "victory"
	EntryRoundEnd   EntryType = "round_end"
	EntryPenalty    EntryType = "penalty"
)

// Valid reports whether t is one of the known entry types.
func (t EntryType) Valid() bool {
	switch t {
	case EntryAdd, EntrySubtract, EntryManualEdit, EntryVictory, EntryRoundEnd, EntryPenalty:
		return true
	}
	return false
}

// HistoryEntry is one immutable line of the scoring ledger.
// Points is always the magnitude of the change; PreviousTotal and NewTotal carry the sign.
type HistoryEntry struct {
	ID            uuid.UUID `json:"id"`
	PlayerID      uuid.UUID `json:"playerId"`
	RoundNumber   int       `json:"roundNumber"`
	Timestamp     int64     `json:"timestamp"` // epoch millis
	Type          EntryType `json:"type"`
	Points        int       `json:"points"`
	Description   string    `json:"description"`
	PreviousTotal int       `json:"previousTotal"`
	NewTotal      int       `json:"newTotal"`
}

// HistoryRecord is one ledger entry tagged with its game, as queued for the historian.
type HistoryRecord struct {
	GameID uuid.UUID    `json:"game_id"`
	Entry  HistoryEntry `json:"entry"`
}
