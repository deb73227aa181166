package history

import (
	"fmt"
	"time"
)

// Record captures the outcome of one recommendation call for later review.
type Record struct {
	EntryID         int64
	Bank            int
	SuggestionCount int
	TopGain         float64
	Signal          string
	CreatedAt       time.Time
}

func (r Record) Validate() error {
	if r.EntryID <= 0 {
		return fmt.Errorf("entry id must be greater than zero")
	}
	if r.SuggestionCount < 0 {
		return fmt.Errorf("suggestion count cannot be negative")
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("created at is required")
	}
	return nil
}
