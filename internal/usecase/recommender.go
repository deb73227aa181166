package usecase

import (
	"math"
	"sort"

	"github.com/fplscout/transfer-advisor/internal/domain/advice"
	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
	"github.com/fplscout/transfer-advisor/internal/domain/squad"
)

// RecommenderConfig names the knobs the scoring algorithm depends on.
type RecommenderConfig struct {
	// Epsilon is the minimum signal improvement before a candidate counts
	// as an upgrade; it suppresses noise-level gains. Defaults to 0.1.
	Epsilon float64
	// MaxSuggestions bounds response size. A safety valve, not a business
	// rule: truncation never reorders kept items. Defaults to 50.
	MaxSuggestions int
	// IncludeDoubtful relaxes the candidate availability policy.
	IncludeDoubtful bool
	// Signal selects the performance signal driving comparisons.
	Signal catalog.SignalKind
}

func NormalizeRecommenderConfig(cfg RecommenderConfig) RecommenderConfig {
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = 0.1
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = 50
	}
	if cfg.Signal == "" {
		cfg.Signal = catalog.SignalExpectedPoints
	}
	return cfg
}

// Recommender turns (squad rows, snapshot, bank) into a ranked, deduplicated
// list of single-swap suggestions. Bounded, non-blocking computation: the
// only configurable state is the scoring knobs.
type Recommender struct {
	cfg    RecommenderConfig
	policy catalog.AvailabilityPolicy
}

func NewRecommender(cfg RecommenderConfig) *Recommender {
	cfg = NormalizeRecommenderConfig(cfg)
	return &Recommender{
		cfg:    cfg,
		policy: catalog.AvailabilityPolicy{IncludeDoubtful: cfg.IncludeDoubtful},
	}
}

// Recommend emits every affordable, meaningfully-better swap per squad row,
// globally sorted by expected gain desc, cost delta asc, then (out, in) ids
// for deterministic ordering of equal keys. Bank is in tenths and may be
// malformed; negative per-row budgets are clamped to zero so free riders
// never slip through.
func (r *Recommender) Recommend(rows []squad.Row, snap *catalog.Snapshot, bank int) []advice.Suggestion {
	if len(rows) == 0 {
		return []advice.Suggestion{}
	}

	pool := r.candidatePool(snap, rows)

	suggestions := make([]advice.Suggestion, 0, 64)
	for _, row := range rows {
		budget := bank + row.SaleValue
		if budget < 0 {
			budget = 0
		}
		outSignal := row.Signal(r.cfg.Signal)

		for _, c := range pool {
			if c.Position != row.Player.Position {
				continue
			}
			if c.Cost > budget {
				continue
			}
			inSignal := c.Signal(r.cfg.Signal)
			if inSignal <= outSignal+r.cfg.Epsilon {
				continue
			}

			suggestions = append(suggestions, advice.Suggestion{
				Out: advice.PlayerSummary{
					ID:          row.Player.ID,
					DisplayName: row.Player.DisplayName,
					Position:    row.Player.Position,
					Team:        snap.TeamShort(row.Player.TeamID),
					Cost:        row.SaleValue,
					Signal:      outSignal,
				},
				In: advice.PlayerSummary{
					ID:          c.ID,
					DisplayName: c.DisplayName,
					Position:    c.Position,
					Team:        snap.TeamShort(c.TeamID),
					Cost:        c.Cost,
					Signal:      inSignal,
				},
				ExpectedGain: round2(inSignal - outSignal),
				CostDelta:    c.Cost - row.SaleValue,
				Affordable:   true,
			})
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.ExpectedGain != b.ExpectedGain {
			return a.ExpectedGain > b.ExpectedGain
		}
		if a.CostDelta != b.CostDelta {
			return a.CostDelta < b.CostDelta
		}
		if a.Out.ID != b.Out.ID {
			return a.Out.ID < b.Out.ID
		}
		return a.In.ID < b.In.ID
	})

	deduped := suggestions[:0]
	seen := make(map[string]struct{}, len(suggestions))
	for _, s := range suggestions {
		key := s.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, s)
	}

	if len(deduped) > r.cfg.MaxSuggestions {
		deduped = deduped[:r.cfg.MaxSuggestions]
	}
	return deduped
}

// candidatePool is built once per call: pickable players with a positive
// performance signal. Players already in the squad are excluded; swapping
// in a player the caller already owns is never actionable.
func (r *Recommender) candidatePool(snap *catalog.Snapshot, rows []squad.Row) []catalog.Player {
	owned := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		owned[row.Player.ID] = struct{}{}
	}

	players := snap.Players()
	pool := make([]catalog.Player, 0, len(players))
	for _, p := range players {
		if !r.policy.Pickable(p.Availability) {
			continue
		}
		if p.Signal(r.cfg.Signal) <= 0 {
			continue
		}
		if _, ok := owned[p.ID]; ok {
			continue
		}
		pool = append(pool, p)
	}
	return pool
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
