package history

import "context"

// Repository describes advice-log persistence needs from use cases.
type Repository interface {
	Append(ctx context.Context, record Record) error
	ListByEntry(ctx context.Context, entryID int64, limit int) ([]Record, error)
}
