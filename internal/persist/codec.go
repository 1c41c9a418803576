// internal/persist/codec.go
package persist

import (
	"encoding/json"
	"fmt"

	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
)

// EncodeState serializes the game-state record.
func EncodeState(state game.State) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state %s: %w", state.ID, err)
	}
	return data, nil
}

// DecodeState parses and validates a game-state record. Anything that does not describe a
// playable game is ErrCorrupt.
func DecodeState(data []byte) (game.State, error) {
	var state game.State
	if err := json.Unmarshal(data, &state); err != nil {
		return game.State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := state.Validate(); err != nil {
		return game.State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return state, nil
}

// EncodeHistory serializes the ledger as an ordered JSON array. A nil ledger encodes as [].
func EncodeHistory(entries []models.HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return data, nil
}

// DecodeHistory parses a ledger record, keeping its order.
func DecodeHistory(data []byte) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for i, e := range entries {
		if e.ID == uuid.Nil || e.PlayerID == uuid.Nil || !e.Type.Valid() {
			return nil, fmt.Errorf("%w: history entry %d", ErrCorrupt, i)
		}
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}
