package slotstore

import (
	"context"
	"time"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/timezone"
)

// OutcomeRow is the per-source last-run summary kept for operational
// monitoring. Only the most recent run per source is retained.
type OutcomeRow struct {
	Source     string    `json:"source"`
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"`
	Records    int       `json:"records"`
	Skipped    int       `json:"skipped"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

const upsertOutcome = `
INSERT INTO run_summary (source, run_id, status, records, skipped, elapsed_ms, error, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (source) DO UPDATE SET
	run_id = excluded.run_id,
	status = excluded.status,
	records = excluded.records,
	skipped = excluded.skipped,
	elapsed_ms = excluded.elapsed_ms,
	error = excluded.error,
	finished_at = excluded.finished_at`

func (s Store) RecordOutcomes(ctx context.Context, rows []OutcomeRow) error {
	now, err := s.Now(ctx)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, row := range rows {
		_, err := tx.ExecContext(ctx, upsertOutcome,
			row.Source, row.RunID, row.Status, row.Records, row.Skipped,
			row.ElapsedMS, row.Error, now.Unix(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s Store) LastOutcomes(ctx context.Context) ([]OutcomeRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, run_id, status, records, skipped, elapsed_ms, error, finished_at
		FROM run_summary ORDER BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var row OutcomeRow
		var finishedAt int64
		err := rows.Scan(
			&row.Source, &row.RunID, &row.Status, &row.Records, &row.Skipped,
			&row.ElapsedMS, &row.Error, &finishedAt,
		)
		if err != nil {
			return nil, err
		}
		row.FinishedAt = time.Unix(finishedAt, 0).In(timezone.Location)
		out = append(out, row)
	}
	return out, rows.Err()
}
