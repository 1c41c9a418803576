// internal/persist/store.go
package persist

import (
	"context"
	"errors"

	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record was never written or has been cleared.
	ErrNotFound = errors.New("record not found")
	// ErrCorrupt is returned when a stored record cannot be decoded into a usable value.
	ErrCorrupt = errors.New("corrupt record")
)

// Store keeps the two durable records of each session: the game-state snapshot and the
// full history ledger. The records are independent; either may be missing.
type Store interface {
	SaveState(ctx context.Context, state game.State) error
	LoadState(ctx context.Context, id uuid.UUID) (game.State, error)
	SaveHistory(ctx context.Context, id uuid.UUID, entries []models.HistoryEntry) error
	LoadHistory(ctx context.Context, id uuid.UUID) ([]models.HistoryEntry, error)
	// Clear removes both records of a session. Clearing an unknown session is not an error.
	Clear(ctx context.Context, id uuid.UUID) error
	// ListGames returns the ids of every session with a stored game-state record.
	ListGames(ctx context.Context) ([]uuid.UUID, error)
	Close() error
}
