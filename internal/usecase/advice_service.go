package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/fplscout/transfer-advisor/internal/domain/advice"
	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
	"github.com/fplscout/transfer-advisor/internal/domain/history"
	"github.com/fplscout/transfer-advisor/internal/domain/squad"
	"github.com/fplscout/transfer-advisor/internal/platform/cache"
)

// SquadPayload is the upstream per-user squad: ordered picks plus the
// remaining bank in tenths.
type SquadPayload struct {
	Picks []squad.Pick
	Bank  int
}

// SquadFetcher retrieves one user's current squad from the upstream.
type SquadFetcher interface {
	FetchSquad(ctx context.Context, entryID int64) (SquadPayload, error)
}

// Advice is the combined recommendation response: the enriched squad, the
// bank it was computed against, and the ranked suggestions. TeamShorts maps
// squad team ids to short names from the same snapshot the suggestions were
// computed on.
type Advice struct {
	Squad       []squad.Row
	Bank        int
	Suggestions []advice.Suggestion
	TeamShorts  map[int64]string
}

// SquadHealthRow reports one squad member's availability using the same
// predicate the suggestion candidate pool uses.
type SquadHealthRow struct {
	PlayerID        int64
	DisplayName     string
	Position        catalog.Position
	Availability    catalog.Availability
	ChanceOfPlaying *int
	Pickable        bool
	Missing         bool
}

const historyWriterPoolSize = 4

// AdviceService is the single entry point combining the squad resolver and
// the recommendation engine over the current catalog snapshot.
type AdviceService struct {
	catalogCache *CatalogCache
	squads       SquadFetcher
	recommender  *Recommender
	healthPolicy catalog.AvailabilityPolicy
	squadCache   *cache.Store
	historyRepo  history.Repository
	writerPool   *ants.Pool
	logger       *slog.Logger
	now          func() time.Time
}

// NewAdviceService wires the service. historyRepo may be nil to disable the
// advice log; squadCacheTTL <= 0 disables squad payload caching.
func NewAdviceService(
	catalogCache *CatalogCache,
	squads SquadFetcher,
	recommenderCfg RecommenderConfig,
	historyRepo history.Repository,
	squadCacheTTL time.Duration,
	logger *slog.Logger,
) (*AdviceService, error) {
	if catalogCache == nil {
		return nil, fmt.Errorf("catalog cache is required")
	}
	if squads == nil {
		return nil, fmt.Errorf("squad fetcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	recommenderCfg = NormalizeRecommenderConfig(recommenderCfg)

	var squadCache *cache.Store
	if squadCacheTTL > 0 {
		squadCache = cache.NewStore(squadCacheTTL)
	}

	var writerPool *ants.Pool
	if historyRepo != nil {
		p, err := ants.NewPool(historyWriterPoolSize, ants.WithNonblocking(true))
		if err != nil {
			return nil, fmt.Errorf("create history writer pool: %w", err)
		}
		writerPool = p
	}

	return &AdviceService{
		catalogCache: catalogCache,
		squads:       squads,
		recommender:  NewRecommender(recommenderCfg),
		healthPolicy: catalog.AvailabilityPolicy{IncludeDoubtful: recommenderCfg.IncludeDoubtful},
		squadCache:   squadCache,
		historyRepo:  historyRepo,
		writerPool:   writerPool,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Close releases the async history writer pool.
func (s *AdviceService) Close() {
	if s.writerPool != nil {
		s.writerPool.Release()
	}
}

// Recommend fetches the snapshot and the user's squad (concurrently),
// resolves the squad and runs the recommendation engine. An empty squad
// yields empty suggestions, not an error; upstream connectivity failures
// surface as ErrUpstreamUnavailable / ErrUpstreamTimeout.
func (s *AdviceService) Recommend(ctx context.Context, entryID int64) (Advice, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdviceService.Recommend")
	defer span.End()

	if entryID <= 0 {
		return Advice{}, fmt.Errorf("%w: entry id must be greater than zero", ErrInvalidInput)
	}

	var snap *catalog.Snapshot
	var payload SquadPayload

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		got, err := s.catalogCache.Snapshot(ctx)
		if err != nil {
			return err
		}
		snap = got
		return nil
	})
	p.Go(func(ctx context.Context) error {
		got, err := s.fetchSquad(ctx, entryID)
		if err != nil {
			return err
		}
		payload = got
		return nil
	})
	if err := p.Wait(); err != nil {
		return Advice{}, err
	}

	rows := ResolveSquad(payload.Picks, snap)
	suggestions := s.recommender.Recommend(rows, snap, payload.Bank)

	teamShorts := make(map[int64]string, len(rows))
	for _, row := range rows {
		if _, ok := teamShorts[row.Player.TeamID]; !ok {
			teamShorts[row.Player.TeamID] = snap.TeamShort(row.Player.TeamID)
		}
	}

	s.logger.InfoContext(ctx, "recommendations computed",
		"entry_id", entryID,
		"squad_size", len(rows),
		"bank", payload.Bank,
		"suggestion_count", len(suggestions),
	)

	s.appendHistory(entryID, payload.Bank, suggestions)

	return Advice{
		Squad:       rows,
		Bank:        payload.Bank,
		Suggestions: suggestions,
		TeamShorts:  teamShorts,
	}, nil
}

// SquadHealth reports per-player availability for the given entry.
func (s *AdviceService) SquadHealth(ctx context.Context, entryID int64) ([]SquadHealthRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdviceService.SquadHealth")
	defer span.End()

	if entryID <= 0 {
		return nil, fmt.Errorf("%w: entry id must be greater than zero", ErrInvalidInput)
	}

	snap, err := s.catalogCache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := s.fetchSquad(ctx, entryID)
	if err != nil {
		return nil, err
	}

	rows := ResolveSquad(payload.Picks, snap)
	out := make([]SquadHealthRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, SquadHealthRow{
			PlayerID:        row.Player.ID,
			DisplayName:     row.Player.DisplayName,
			Position:        row.Player.Position,
			Availability:    row.Player.Availability,
			ChanceOfPlaying: row.Player.ChanceOfPlaying,
			Pickable:        s.healthPolicy.Pickable(row.Player.Availability),
			Missing:         row.Missing,
		})
	}
	return out, nil
}

// CatalogSnapshot exposes the current snapshot for catalog listings.
func (s *AdviceService) CatalogSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdviceService.CatalogSnapshot")
	defer span.End()

	return s.catalogCache.Snapshot(ctx)
}

// AdviceHistory lists recent advice-log records for an entry.
func (s *AdviceService) AdviceHistory(ctx context.Context, entryID int64, limit int) ([]history.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdviceService.AdviceHistory")
	defer span.End()

	if s.historyRepo == nil {
		return nil, fmt.Errorf("%w: advice log is disabled", ErrNotFound)
	}
	if entryID <= 0 {
		return nil, fmt.Errorf("%w: entry id must be greater than zero", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	records, err := s.historyRepo.ListByEntry(ctx, entryID, limit)
	if err != nil {
		return nil, fmt.Errorf("list advice history: %w", err)
	}
	return records, nil
}

func (s *AdviceService) fetchSquad(ctx context.Context, entryID int64) (SquadPayload, error) {
	load := func(ctx context.Context) (any, error) {
		payload, err := s.squads.FetchSquad(ctx, entryID)
		if err != nil {
			return SquadPayload{}, mapUpstreamError(fmt.Sprintf("fetch squad entry_id=%d", entryID), err)
		}
		return payload, nil
	}

	if s.squadCache == nil {
		v, err := load(ctx)
		if err != nil {
			return SquadPayload{}, err
		}
		return v.(SquadPayload), nil
	}

	v, err := s.squadCache.GetOrLoad(ctx, fmt.Sprintf("squad:%d", entryID), load)
	if err != nil {
		return SquadPayload{}, err
	}
	return v.(SquadPayload), nil
}

// appendHistory records the call outcome asynchronously; the hot path never
// blocks on the advice log and write failures are logged, not propagated.
func (s *AdviceService) appendHistory(entryID int64, bank int, suggestions []advice.Suggestion) {
	if s.historyRepo == nil || s.writerPool == nil {
		return
	}

	record := history.Record{
		EntryID:         entryID,
		Bank:            bank,
		SuggestionCount: len(suggestions),
		Signal:          string(s.recommender.cfg.Signal),
		CreatedAt:       s.now().UTC(),
	}
	if len(suggestions) > 0 {
		record.TopGain = suggestions[0].ExpectedGain
	}

	err := s.writerPool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.historyRepo.Append(ctx, record); err != nil {
			s.logger.Warn("advice log append failed", "entry_id", record.EntryID, "error", err)
		}
	})
	if err != nil {
		s.logger.Warn("advice log write skipped", "entry_id", record.EntryID, "error", err)
	}
}
