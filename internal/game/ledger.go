// internal/game/ledger.go
package game

import (
	"encoding/json"
	"sort"

	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
)

// Ledger is the append-only scoring history of a game. It outlives rounds and is never edited:
// corrections are new entries. Guarded by the owning Game's lock.
type Ledger struct {
	entries []models.HistoryEntry
}

// NewLedger returns a ledger seeded with previously persisted entries, in order.
func NewLedger(entries []models.HistoryEntry) *Ledger {
	l := &Ledger{entries: make([]models.HistoryEntry, len(entries))}
	copy(l.entries, entries)
	return l
}

// Append adds an entry to the end of the ledger.
func (l *Ledger) Append(entry models.HistoryEntry) {
	l.entries = append(l.entries, entry)
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the full ordered sequence.
func (l *Ledger) Entries() []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ForPlayer returns the entries of one player, newest first.
func (l *Ledger) ForPlayer(playerID uuid.UUID) []models.HistoryEntry {
	out := []models.HistoryEntry{}
	for _, e := range l.entries {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// lastTimestamp is 0 for an empty ledger.
func (l *Ledger) lastTimestamp() int64 {
	if len(l.entries) == 0 {
		return 0
	}
	return l.entries[len(l.entries)-1].Timestamp
}

// MarshalJSON encodes the ledger as a plain JSON array.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

// UnmarshalJSON replaces the ledger contents with a decoded JSON array.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.entries = entries
	return nil
}
