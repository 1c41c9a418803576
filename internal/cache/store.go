// internal/cache/store.go
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/Lukasz11111/triominos/internal/persist"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	stateKeyPrefix   = "triominos:game-state:"
	historyKeyPrefix = "triominos:history:"
	gamesKey         = "triominos:games"
)

// Store keeps both session records as JSON strings in Redis, with a set of known game ids.
type Store struct {
	rdb *redis.Client
}

var _ persist.Store = (*Store)(nil)

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func stateKey(id uuid.UUID) string   { return stateKeyPrefix + id.String() }
func historyKey(id uuid.UUID) string { return historyKeyPrefix + id.String() }

func (s *Store) SaveState(ctx context.Context, state game.State) error {
	data, err := persist.EncodeState(state)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, stateKey(state.ID), data, 0)
		pipe.SAdd(ctx, gamesKey, state.ID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("save game state: %w", err)
	}
	return nil
}

func (s *Store) LoadState(ctx context.Context, id uuid.UUID) (game.State, error) {
	data, err := s.rdb.Get(ctx, stateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.State{}, persist.ErrNotFound
	}
	if err != nil {
		return game.State{}, fmt.Errorf("load game state: %w", err)
	}
	return persist.DecodeState(data)
}

func (s *Store) SaveHistory(ctx context.Context, id uuid.UUID, entries []models.HistoryEntry) error {
	data, err := persist.EncodeHistory(entries)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, historyKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *Store) LoadHistory(ctx context.Context, id uuid.UUID) ([]models.HistoryEntry, error) {
	data, err := s.rdb.Get(ctx, historyKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return persist.DecodeHistory(data)
}

func (s *Store) Clear(ctx context.Context, id uuid.UUID) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, stateKey(id), historyKey(id))
		pipe.SRem(ctx, gamesKey, id.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear game %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListGames(ctx context.Context) ([]uuid.UUID, error) {
	members, err := s.rdb.SMembers(ctx, gamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Close closes the shared client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
