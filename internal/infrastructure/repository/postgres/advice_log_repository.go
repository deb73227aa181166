package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fplscout/transfer-advisor/internal/domain/history"
)

// AdviceLogRepository persists recommendation outcomes for later review.
type AdviceLogRepository struct {
	db *sqlx.DB
}

func NewAdviceLogRepository(db *sqlx.DB) *AdviceLogRepository {
	return &AdviceLogRepository{db: db}
}

func (r *AdviceLogRepository) Append(ctx context.Context, record history.Record) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validate advice record: %w", err)
	}

	const query = `
INSERT INTO advice_logs (entry_id, bank, suggestion_count, top_gain, signal, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		record.EntryID,
		record.Bank,
		record.SuggestionCount,
		record.TopGain,
		record.Signal,
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert advice log: %w", err)
	}
	return nil
}

func (r *AdviceLogRepository) ListByEntry(ctx context.Context, entryID int64, limit int) ([]history.Record, error) {
	if entryID <= 0 {
		return nil, fmt.Errorf("entry id must be greater than zero")
	}
	if limit <= 0 {
		limit = 20
	}

	const query = `
SELECT id, entry_id, bank, suggestion_count, top_gain, signal, created_at
FROM advice_logs
WHERE entry_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

	var rows []adviceLogModel
	if err := r.db.SelectContext(ctx, &rows, query, entryID, limit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []history.Record{}, nil
		}
		return nil, fmt.Errorf("select advice logs: %w", err)
	}

	records := make([]history.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records, nil
}

// PruneBefore deletes records older than the cutoff. Intended for the
// migration command's housekeeping mode.
func (r *AdviceLogRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM advice_logs WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune advice logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune advice logs rows affected: %w", err)
	}
	return n, nil
}
