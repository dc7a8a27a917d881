// Package archive persists completed prefetch snapshots to Postgres for
// audit and reporting. It is a write-behind sink: the pipeline never reads
// from it, and a missing DSN simply disables archiving.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avancesaude/agenda-portal/internal/agenda"
)

const schema = `
CREATE TABLE IF NOT EXISTS agenda_snapshot (
	signature     text PRIMARY KEY,
	patient       text NOT NULL,
	professional  text NOT NULL,
	status        text NOT NULL,
	start_at      timestamp NOT NULL,
	end_at        timestamp NOT NULL,
	raw           jsonb,
	captured_at   timestamptz NOT NULL
)`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the snapshot table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the working record set, keyed by dedup signature so
// re-archiving overlapping windows stays idempotent.
func (r *Repository) SaveSnapshot(ctx context.Context, capturedAt time.Time, records []agenda.Appointment) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, a := range records {
		raw, err := json.Marshal(a.Raw)
		if err != nil {
			raw = nil
		}
		batch.Queue(`
			INSERT INTO agenda_snapshot
				(signature, patient, professional, status, start_at, end_at, raw, captured_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (signature) DO UPDATE SET
				status = EXCLUDED.status,
				end_at = EXCLUDED.end_at,
				raw = EXCLUDED.raw,
				captured_at = EXCLUDED.captured_at
		`, a.Signature(), a.PatientName, a.ProfessionalName, string(a.Status), a.Start, a.End, raw, capturedAt)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("archive snapshot batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// CountArchived reports how many distinct appointments the archive holds.
func (r *Repository) CountArchived(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM agenda_snapshot`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count archived: %w", err)
	}
	return n, nil
}
