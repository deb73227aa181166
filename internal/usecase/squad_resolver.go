package usecase

import (
	"fmt"
	"sort"

	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
	"github.com/fplscout/transfer-advisor/internal/domain/squad"
)

// ResolveSquad joins raw picks against the snapshot, producing enriched
// rows ordered by position rank (keeper first) with input order preserved
// within a position. A pick whose id is absent from the snapshot yields a
// placeholder row instead of an error: catalog and squad data can be
// transiently out of sync and the resolver degrades gracefully.
//
// Pure function: no network access, no snapshot mutation.
func ResolveSquad(picks []squad.Pick, snap *catalog.Snapshot) []squad.Row {
	rows := make([]squad.Row, 0, len(picks))
	for _, pick := range picks {
		p, ok := snap.Player(pick.PlayerID)
		if !ok {
			rows = append(rows, squad.Row{
				Player: catalog.Player{
					ID:           pick.PlayerID,
					DisplayName:  fmt.Sprintf("Unknown #%d", pick.PlayerID),
					Position:     catalog.PositionUnknown,
					Availability: catalog.AvailabilityUnknown,
				},
				IsCaptain:     pick.IsCaptain,
				IsViceCaptain: pick.IsViceCaptain,
				Missing:       true,
			})
			continue
		}

		rows = append(rows, squad.Row{
			Player:        p,
			SaleValue:     p.Cost,
			IsCaptain:     pick.IsCaptain,
			IsViceCaptain: pick.IsViceCaptain,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Player.Position.Rank() < rows[j].Player.Position.Rank()
	})

	return rows
}
