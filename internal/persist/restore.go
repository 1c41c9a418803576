// internal/persist/restore.go
package persist

import (
	"context"
	"errors"

	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LoadGame rebuilds one session from the store. Any read failure, including a corrupt or
// missing game-state record, is logged and reported as absent. A history record that
// cannot be read leaves the game with an empty ledger.
func LoadGame(ctx context.Context, store Store, id uuid.UUID, logger *logrus.Logger) (*game.Game, bool) {
	log := logger.WithField("game", id)

	state, err := store.LoadState(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).Warn("discarding unreadable game state")
		}
		return nil, false
	}

	history, err := store.LoadHistory(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).Warn("discarding unreadable history")
		}
		history = []models.HistoryEntry{}
	}

	g, err := game.Restore(state, history)
	if err != nil {
		log.WithError(err).Warn("discarding game state that cannot be restored")
		return nil, false
	}
	g.SetLogger(logger)
	return g, true
}

// LoadAll restores every stored session that can be read.
func LoadAll(ctx context.Context, store Store, logger *logrus.Logger) []*game.Game {
	ids, err := store.ListGames(ctx)
	if err != nil {
		logger.WithError(err).Warn("failed to list stored games")
		return nil
	}
	var games []*game.Game
	for _, id := range ids {
		if g, ok := LoadGame(ctx, store, id, logger); ok {
			games = append(games, g)
		}
	}
	return games
}
