package advice

import (
	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
)

// PlayerSummary is the slice of player data a suggestion carries for each
// side of a swap.
type PlayerSummary struct {
	ID          int64
	DisplayName string
	Position    catalog.Position
	Team        string
	Cost        int
	Signal      float64
}

// Suggestion is one ranked single-swap recommendation. Immutable once
// produced.
type Suggestion struct {
	Out          PlayerSummary
	In           PlayerSummary
	ExpectedGain float64
	// CostDelta is in.Cost minus out's sale value, in tenths. Negative
	// means the swap frees budget.
	CostDelta  int
	Affordable bool
}

// DedupKey collapses suggestions at display level: the engine never emits
// the same (out, in) pair twice per call, so same-named entities collapsing
// is intentional.
func (s Suggestion) DedupKey() string {
	return s.Out.DisplayName + "\x00" + s.In.DisplayName
}

// TransferPlan is a pairwise comparison of one squad player against one
// catalog player across all performance signals.
type TransferPlan struct {
	Replace            string
	With               string
	Position           catalog.Position
	FormGain           float64
	PointsPerGameGain  float64
	ExpectedPointsGain float64
	// CostChange is in tenths; positive means the incoming player costs more.
	CostChange int
}
