package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fplscout/transfer-advisor/internal/domain/history"
)

// AdviceLogRepository keeps recommendation outcomes in memory. Used when
// advice logging is enabled without a database.
type AdviceLogRepository struct {
	mu      sync.RWMutex
	byEntry map[int64][]history.Record
	maxPer  int
}

func NewAdviceLogRepository() *AdviceLogRepository {
	return &AdviceLogRepository{
		byEntry: make(map[int64][]history.Record),
		maxPer:  500,
	}
}

func (r *AdviceLogRepository) Append(_ context.Context, record history.Record) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validate advice record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records := append(r.byEntry[record.EntryID], record)
	if len(records) > r.maxPer {
		records = records[len(records)-r.maxPer:]
	}
	r.byEntry[record.EntryID] = records
	return nil
}

func (r *AdviceLogRepository) ListByEntry(_ context.Context, entryID int64, limit int) ([]history.Record, error) {
	if entryID <= 0 {
		return nil, fmt.Errorf("entry id must be greater than zero")
	}
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byEntry[entryID]
	out := make([]history.Record, len(stored))
	copy(out, stored)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
