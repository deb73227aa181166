package postgres

import (
	"time"

	"github.com/fplscout/transfer-advisor/internal/domain/history"
)

type adviceLogModel struct {
	ID              int64     `db:"id"`
	EntryID         int64     `db:"entry_id"`
	Bank            int       `db:"bank"`
	SuggestionCount int       `db:"suggestion_count"`
	TopGain         float64   `db:"top_gain"`
	Signal          string    `db:"signal"`
	CreatedAt       time.Time `db:"created_at"`
}

func (m adviceLogModel) toDomain() history.Record {
	return history.Record{
		EntryID:         m.EntryID,
		Bank:            m.Bank,
		SuggestionCount: m.SuggestionCount,
		TopGain:         m.TopGain,
		Signal:          m.Signal,
		CreatedAt:       m.CreatedAt.UTC(),
	}
}
