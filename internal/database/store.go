// internal/database/store.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/Lukasz11111/triominos/internal/persist"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps both session records as JSONB rows.
type Store struct {
	pool *pgxpool.Pool
}

var _ persist.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) SaveState(ctx context.Context, state game.State) error {
	data, err := persist.EncodeState(state)
	if err != nil {
		return err
	}
	q := `
		INSERT INTO game_states (game_id, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (game_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()
	`
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, state.ID, data)
		return err
	})
}

func (s *Store) LoadState(ctx context.Context, id uuid.UUID) (game.State, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM game_states WHERE game_id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
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
	q := `
		INSERT INTO game_history (game_id, entries, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (game_id)
		DO UPDATE SET entries = EXCLUDED.entries, updated_at = NOW()
	`
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, id, data)
		return err
	})
}

func (s *Store) LoadHistory(ctx context.Context, id uuid.UUID) ([]models.HistoryEntry, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT entries FROM game_history WHERE game_id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, persist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return persist.DecodeHistory(data)
}

// Clear removes both records. The audit rows written by the historian are kept.
func (s *Store) Clear(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM game_states WHERE game_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM game_history WHERE game_id = $1`, id)
		return err
	})
}

func (s *Store) ListGames(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT game_id FROM game_states ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
