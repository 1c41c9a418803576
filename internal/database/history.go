// internal/database/history.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryWriter inserts queued ledger entries into the history_entries audit table.
type HistoryWriter struct {
	pool *pgxpool.Pool
}

func NewHistoryWriter(pool *pgxpool.Pool) *HistoryWriter {
	return &HistoryWriter{pool: pool}
}

// InsertHistoryBatch writes all records in a single transaction. Entries already present
// (same id) are skipped, so a batch replayed after a failure is harmless.
func (w *HistoryWriter) InsertHistoryBatch(ctx context.Context, records []models.HistoryRecord) error {
	q := `
		INSERT INTO history_entries (
			id, game_id, player_id, round_number, entry_type, points,
			description, previous_total, new_total, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, w.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			e := rec.Entry
			_, err := tx.Exec(ctx, q,
				e.ID, rec.GameID, e.PlayerID, e.RoundNumber, string(e.Type), e.Points,
				e.Description, e.PreviousTotal, e.NewTotal, time.UnixMilli(e.Timestamp),
			)
			if err != nil {
				return fmt.Errorf("insert history entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}
