package squad

import (
	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
)

// Pick is one entry from the upstream squad payload before enrichment.
type Pick struct {
	PlayerID      int64
	IsCaptain     bool
	IsViceCaptain bool
}

// Row is a selected player joined against the catalog snapshot. Rows are
// request-scoped: recomputed on every call, never persisted.
type Row struct {
	Player catalog.Player
	// SaleValue is the amount recoverable if the player is sold, in
	// tenths. Approximated as current cost: the upstream purchase-price
	// ledger is not modelled, so real sell prices can differ under the
	// provider's profit-split rule.
	SaleValue     int
	IsCaptain     bool
	IsViceCaptain bool
	// Missing marks a placeholder row for a pick whose id was absent
	// from the snapshot (mid-window transfer, renamed entity).
	Missing bool
}

func (r Row) Signal(kind catalog.SignalKind) float64 {
	return r.Player.Signal(kind)
}
