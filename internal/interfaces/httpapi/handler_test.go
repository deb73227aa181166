package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
	"github.com/fplscout/transfer-advisor/internal/domain/squad"
	"github.com/fplscout/transfer-advisor/internal/usecase"
)

type stubCatalogFetcher struct {
	bundle catalog.Bundle
}

func (s *stubCatalogFetcher) FetchCatalog(context.Context) (catalog.Bundle, error) {
	return s.bundle, nil
}

type stubSquadFetcher struct {
	payload usecase.SquadPayload
}

func (s *stubSquadFetcher) FetchSquad(context.Context, int64) (usecase.SquadPayload, error) {
	return s.payload, nil
}

type stubExecutor struct {
	orders []usecase.TransferOrder
	err    error
}

func (s *stubExecutor) ExecuteTransfer(_ context.Context, order usecase.TransferOrder) error {
	if s.err != nil {
		return s.err
	}
	s.orders = append(s.orders, order)
	return nil
}

func testBundle() catalog.Bundle {
	return catalog.Bundle{
		Players: []catalog.Player{
			{
				ID: 1, DisplayName: "Keeper One", TeamID: 1,
				Position: catalog.PositionKeeper, Cost: 45,
				ExpectedPointsNext: 3.0, Availability: catalog.AvailabilityAvailable,
			},
			{
				ID: 2, DisplayName: "Defender Old", TeamID: 1,
				Position: catalog.PositionDefender, Cost: 50,
				ExpectedPointsNext: 2.0, Availability: catalog.AvailabilityAvailable,
			},
			{
				ID: 3, DisplayName: "Defender New", TeamID: 2,
				Position: catalog.PositionDefender, Cost: 55,
				ExpectedPointsNext: 3.5, Availability: catalog.AvailabilityAvailable,
			},
		},
		Teams: []catalog.Team{
			{ID: 1, Name: "Arsenal", Short: "ARS"},
			{ID: 2, Name: "Liverpool", Short: "LIV"},
		},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *stubExecutor) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalogCache := usecase.NewCatalogCache(
		&stubCatalogFetcher{bundle: testBundle()},
		usecase.CatalogCacheConfig{TTL: time.Hour, ServeStale: true},
		logger,
	)
	squads := &stubSquadFetcher{payload: usecase.SquadPayload{
		Picks: []squad.Pick{{PlayerID: 1}, {PlayerID: 2, IsCaptain: true}},
		Bank:  10,
	}}

	adviceService, err := usecase.NewAdviceService(catalogCache, squads, usecase.RecommenderConfig{}, nil, 0, logger)
	if err != nil {
		t.Fatalf("NewAdviceService: %v", err)
	}
	t.Cleanup(adviceService.Close)

	executor := &stubExecutor{}
	transferService := usecase.NewTransferService(catalogCache, executor, logger)

	handler := NewHandler(adviceService, transferService, catalogCache, logger)
	return NewRouter(handler, logger, nil, "job-secret"), executor
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	data, _ := body["data"].(map[string]any)
	return data
}

func TestGetAdviceEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/squads/42/advice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["entryId"].(float64) != 42 {
		t.Fatalf("expected entryId 42, got %v", data["entryId"])
	}
	if data["bank"].(float64) != 10 {
		t.Fatalf("expected bank 10, got %v", data["bank"])
	}

	squadRows, _ := data["squad"].([]any)
	if len(squadRows) != 2 {
		t.Fatalf("expected 2 squad rows, got %d", len(squadRows))
	}
	if team := squadRows[0].(map[string]any)["team"]; team != "ARS" {
		t.Fatalf("expected team short ARS, got %v", team)
	}

	suggestions, _ := data["suggestions"].([]any)
	if len(suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
	}
	first := suggestions[0].(map[string]any)
	in := first["in"].(map[string]any)
	if in["displayName"] != "Defender New" {
		t.Fatalf("unexpected suggestion: %v", first)
	}
	if first["expectedGain"].(float64) != 1.5 {
		t.Fatalf("expected gain 1.5, got %v", first["expectedGain"])
	}
}

func TestGetAdviceRejectsBadEntryID(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/squads/abc/advice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListPlayersEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/players?position=DEF&team=ARS", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	players, _ := data["players"].([]any)
	if len(players) != 1 {
		t.Fatalf("expected 1 player after filters, got %d", len(players))
	}
	first := players[0].(map[string]any)
	if first["displayName"] != "Defender Old" {
		t.Fatalf("unexpected player: %v", first)
	}
}

func TestListPlayersRejectsUnknownPosition(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/players?position=XX", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPlanTransferEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := `{"outPlayerId": 2, "inPlayerId": 3}`
	req := httptest.NewRequest(http.MethodPost, "/v1/transfers/plan", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["replace"] != "Defender Old" || data["with"] != "Defender New" {
		t.Fatalf("unexpected plan: %v", data)
	}
	if data["costChange"].(float64) != 5 {
		t.Fatalf("expected cost change 5, got %v", data["costChange"])
	}
}

func TestExecuteTransferEndpoint(t *testing.T) {
	router, executor := newTestRouter(t)

	payload := `{"entryId": 42, "outPlayerId": 2, "inPlayerId": 3, "sessionCookie": "abc"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/transfers/execute", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(executor.orders) != 1 || executor.orders[0].EntryID != 42 {
		t.Fatalf("expected one relayed order, got %+v", executor.orders)
	}
}

func TestExecuteTransferRelaysProviderVerdict(t *testing.T) {
	router, executor := newTestRouter(t)
	executor.err = &usecase.UpstreamRejectionError{StatusCode: http.StatusForbidden, Body: "authentication credentials were not provided"}

	payload := `{"entryId": 42, "outPlayerId": 2, "inPlayerId": 3, "sessionCookie": "expired"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/transfers/execute", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// An expired session is the caller's problem, not an outage.
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "UNAVAILABLE") {
		t.Fatalf("provider verdict must not render as an outage: %s", rec.Body.String())
	}
}

func TestExecuteTransferRequiresSession(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := `{"entryId": 42, "outPlayerId": 2, "inPlayerId": 3}`
	req := httptest.NewRequest(http.MethodPost, "/v1/transfers/execute", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRefreshCatalogRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/catalog/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/internal/catalog/refresh", nil)
	req.Header.Set("X-Internal-Job-Token", "job-secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthzEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
