package usecase

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
	"github.com/fplscout/transfer-advisor/internal/domain/history"
	"github.com/fplscout/transfer-advisor/internal/domain/squad"
)

type stubSquadFetcher struct {
	calls   atomic.Int32
	payload SquadPayload
	err     error
}

func (f *stubSquadFetcher) FetchSquad(_ context.Context, _ int64) (SquadPayload, error) {
	f.calls.Add(1)
	if f.err != nil {
		return SquadPayload{}, f.err
	}
	return f.payload, nil
}

type recordingHistoryRepo struct {
	appended chan history.Record
	err      error
}

func newRecordingHistoryRepo() *recordingHistoryRepo {
	return &recordingHistoryRepo{appended: make(chan history.Record, 8)}
}

func (r *recordingHistoryRepo) Append(_ context.Context, record history.Record) error {
	if r.err != nil {
		return r.err
	}
	r.appended <- record
	return nil
}

func (r *recordingHistoryRepo) ListByEntry(_ context.Context, _ int64, _ int) ([]history.Record, error) {
	return nil, nil
}

func adviceBundle() catalog.Bundle {
	return catalog.Bundle{
		Players: []catalog.Player{
			{ID: 1, DisplayName: "Incumbent", TeamID: 1, Position: catalog.PositionDefender, Cost: 50, ExpectedPointsNext: 2.0, Availability: catalog.AvailabilityAvailable},
			{ID: 2, DisplayName: "Upgrade", TeamID: 1, Position: catalog.PositionDefender, Cost: 55, ExpectedPointsNext: 3.0, Availability: catalog.AvailabilityAvailable},
			{ID: 3, DisplayName: "Marginal", TeamID: 1, Position: catalog.PositionDefender, Cost: 60, ExpectedPointsNext: 2.05, Availability: catalog.AvailabilityAvailable},
			{ID: 4, DisplayName: "Crocked", TeamID: 1, Position: catalog.PositionDefender, Cost: 45, ExpectedPointsNext: 9.0, Availability: catalog.AvailabilityInjured},
		},
		Teams: []catalog.Team{{ID: 1, Name: "Arsenal", Short: "ARS"}},
	}
}

func newAdviceService(t *testing.T, squads SquadFetcher, repo history.Repository, squadTTL time.Duration) *AdviceService {
	t.Helper()

	cache := NewCatalogCache(&stubCatalogFetcher{bundle: adviceBundle()}, CatalogCacheConfig{TTL: 24 * time.Hour}, testLogger())
	svc, err := NewAdviceService(cache, squads, RecommenderConfig{Epsilon: 0.1, MaxSuggestions: 50}, repo, squadTTL, testLogger())
	if err != nil {
		t.Fatalf("build advice service: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestAdviceService_Recommend(t *testing.T) {
	squads := &stubSquadFetcher{payload: SquadPayload{
		Picks: []squad.Pick{{PlayerID: 1}},
		Bank:  10,
	}}
	svc := newAdviceService(t, squads, nil, 0)

	got, err := svc.Recommend(t.Context(), 42)
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}

	if got.Bank != 10 {
		t.Fatalf("bank = %d, want 10", got.Bank)
	}
	if len(got.Squad) != 1 || got.Squad[0].Player.ID != 1 {
		t.Fatalf("unexpected squad rows: %+v", got.Squad)
	}
	if len(got.Suggestions) != 1 {
		t.Fatalf("expected one suggestion (marginal and injured filtered), got %+v", got.Suggestions)
	}
	s := got.Suggestions[0]
	if s.In.ID != 2 || s.ExpectedGain != 1.0 || s.CostDelta != 5 {
		t.Fatalf("unexpected suggestion: %+v", s)
	}
	if s.In.Team != "ARS" {
		t.Fatalf("team short = %q", s.In.Team)
	}
	if got.TeamShorts[1] != "ARS" {
		t.Fatalf("team shorts = %+v, want squad team resolved from the snapshot", got.TeamShorts)
	}
}

func TestAdviceService_Recommend_EmptySquad(t *testing.T) {
	squads := &stubSquadFetcher{payload: SquadPayload{Bank: 100}}
	svc := newAdviceService(t, squads, nil, 0)

	got, err := svc.Recommend(t.Context(), 42)
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	if len(got.Suggestions) != 0 {
		t.Fatalf("empty squad must yield empty suggestions, got %+v", got.Suggestions)
	}
}

func TestAdviceService_Recommend_Deterministic(t *testing.T) {
	squads := &stubSquadFetcher{payload: SquadPayload{
		Picks: []squad.Pick{{PlayerID: 1}},
		Bank:  10,
	}}
	svc := newAdviceService(t, squads, nil, time.Minute)

	first, err := svc.Recommend(t.Context(), 42)
	if err != nil {
		t.Fatalf("first recommend failed: %v", err)
	}
	second, err := svc.Recommend(t.Context(), 42)
	if err != nil {
		t.Fatalf("second recommend failed: %v", err)
	}

	if !reflect.DeepEqual(first.Suggestions, second.Suggestions) {
		t.Fatal("repeated calls within the cache window must be identical")
	}
	if got := squads.calls.Load(); got != 1 {
		t.Fatalf("expected squad payload served from cache, got %d fetches", got)
	}
}

func TestAdviceService_Recommend_InvalidEntryID(t *testing.T) {
	svc := newAdviceService(t, &stubSquadFetcher{}, nil, 0)

	_, err := svc.Recommend(t.Context(), 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAdviceService_Recommend_SquadFetchFailure(t *testing.T) {
	squads := &stubSquadFetcher{err: errors.New("entry endpoint down")}
	svc := newAdviceService(t, squads, nil, 0)

	_, err := svc.Recommend(t.Context(), 42)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestAdviceService_Recommend_AppendsHistoryAsync(t *testing.T) {
	repo := newRecordingHistoryRepo()
	squads := &stubSquadFetcher{payload: SquadPayload{
		Picks: []squad.Pick{{PlayerID: 1}},
		Bank:  10,
	}}
	svc := newAdviceService(t, squads, repo, 0)

	if _, err := svc.Recommend(t.Context(), 42); err != nil {
		t.Fatalf("recommend failed: %v", err)
	}

	select {
	case record := <-repo.appended:
		if record.EntryID != 42 || record.SuggestionCount != 1 || record.TopGain != 1.0 {
			t.Fatalf("unexpected advice record: %+v", record)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("advice record was not appended")
	}
}

func TestAdviceService_Recommend_HistoryFailureDoesNotFailCall(t *testing.T) {
	repo := newRecordingHistoryRepo()
	repo.err = errors.New("db down")
	squads := &stubSquadFetcher{payload: SquadPayload{
		Picks: []squad.Pick{{PlayerID: 1}},
		Bank:  10,
	}}
	svc := newAdviceService(t, squads, repo, 0)

	if _, err := svc.Recommend(t.Context(), 42); err != nil {
		t.Fatalf("recommend must not fail on advice log errors: %v", err)
	}
}

func TestAdviceService_SquadHealth(t *testing.T) {
	squads := &stubSquadFetcher{payload: SquadPayload{
		Picks: []squad.Pick{{PlayerID: 4}, {PlayerID: 1}, {PlayerID: 999}},
	}}
	svc := newAdviceService(t, squads, nil, 0)

	rows, err := svc.SquadHealth(t.Context(), 42)
	if err != nil {
		t.Fatalf("squad health failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 health rows, got %d", len(rows))
	}

	byID := make(map[int64]SquadHealthRow, len(rows))
	for _, row := range rows {
		byID[row.PlayerID] = row
	}

	if !byID[1].Pickable {
		t.Fatal("available player must be pickable")
	}
	if byID[4].Pickable {
		t.Fatal("injured player must not be pickable")
	}
	if byID[4].Availability != catalog.AvailabilityInjured {
		t.Fatalf("availability = %s", byID[4].Availability)
	}
	unknown := byID[999]
	if !unknown.Missing || unknown.Pickable {
		t.Fatalf("placeholder row misreported: %+v", unknown)
	}
}

func TestAdviceService_AdviceHistory_DisabledLog(t *testing.T) {
	svc := newAdviceService(t, &stubSquadFetcher{}, nil, 0)

	_, err := svc.AdviceHistory(t.Context(), 42, 10)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound when advice log is disabled, got %v", err)
	}
}
