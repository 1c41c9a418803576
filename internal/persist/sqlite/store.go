// Package sqlite is the local file-backed session store, the default backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/Lukasz11111/triominos/internal/persist"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_states (
	game_id    TEXT PRIMARY KEY,
	state_json BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS game_history (
	game_id      TEXT PRIMARY KEY,
	history_json BLOB NOT NULL,
	updated_at   INTEGER NOT NULL
);
`

// Store keeps both session records as JSON blobs in a SQLite file.
type Store struct {
	sqlDB *sql.DB
}

var _ persist.Store = (*Store)(nil)

// Open opens the database at path, creating the file and tables when missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) SaveState(ctx context.Context, state game.State) error {
	data, err := persist.EncodeState(state)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_states (game_id, state_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(game_id) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at`,
		state.ID.String(), data, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save game state: %w", err)
	}
	return nil
}

func (s *Store) LoadState(ctx context.Context, id uuid.UUID) (game.State, error) {
	var data []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT state_json FROM game_states WHERE game_id = ?`, id.String(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
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
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_history (game_id, history_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(game_id) DO UPDATE SET history_json = excluded.history_json, updated_at = excluded.updated_at`,
		id.String(), data, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *Store) LoadHistory(ctx context.Context, id uuid.UUID) ([]models.HistoryEntry, error) {
	var data []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT history_json FROM game_history WHERE game_id = ?`, id.String(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return persist.DecodeHistory(data)
}

// Clear deletes both records in one transaction.
func (s *Store) Clear(ctx context.Context, id uuid.UUID) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM game_states WHERE game_id = ?`, id.String()); err != nil {
		return fmt.Errorf("clear game state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM game_history WHERE game_id = ?`, id.String()); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return tx.Commit()
}

// ListGames skips rows whose key is not a valid id.
func (s *Store) ListGames(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT game_id FROM game_states ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan game id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
