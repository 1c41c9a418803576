// internal/database/schema.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_states (
	game_id    UUID PRIMARY KEY,
	state      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS game_history (
	game_id    UUID PRIMARY KEY,
	entries    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS history_entries (
	id             UUID PRIMARY KEY,
	game_id        UUID NOT NULL,
	player_id      UUID NOT NULL,
	round_number   INT NOT NULL,
	entry_type     TEXT NOT NULL,
	points         INT NOT NULL,
	description    TEXT NOT NULL,
	previous_total INT NOT NULL,
	new_total      INT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS history_entries_game_idx ON history_entries (game_id, created_at);
`

// EnsureSchema creates the tables used by the store and the historian.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
