package usecase

import (
	"testing"
	"time"

	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
	"github.com/fplscout/transfer-advisor/internal/domain/squad"
)

func resolverSnapshot() *catalog.Snapshot {
	return catalog.NewSnapshot(catalog.Bundle{
		Players: []catalog.Player{
			{ID: 1, DisplayName: "Raya", TeamID: 1, Position: catalog.PositionKeeper, Cost: 55},
			{ID: 2, DisplayName: "Gabriel", TeamID: 1, Position: catalog.PositionDefender, Cost: 60},
			{ID: 3, DisplayName: "Saka", TeamID: 1, Position: catalog.PositionMidfielder, Cost: 100},
			{ID: 4, DisplayName: "Haaland", TeamID: 2, Position: catalog.PositionForward, Cost: 151},
			{ID: 5, DisplayName: "Trippier", TeamID: 3, Position: catalog.PositionDefender, Cost: 65},
		},
		Teams: []catalog.Team{
			{ID: 1, Name: "Arsenal", Short: "ARS"},
			{ID: 2, Name: "Man City", Short: "MCI"},
			{ID: 3, Name: "Newcastle", Short: "NEW"},
		},
	}, time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC))
}

func TestResolveSquad_OrdersByPositionThenInputOrder(t *testing.T) {
	snap := resolverSnapshot()

	// Input deliberately scrambled; defenders appear in input order 5 then 2.
	picks := []squad.Pick{
		{PlayerID: 4},
		{PlayerID: 5},
		{PlayerID: 3},
		{PlayerID: 2},
		{PlayerID: 1, IsCaptain: true},
	}

	rows := ResolveSquad(picks, snap)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}

	wantOrder := []int64{1, 5, 2, 3, 4}
	for i, want := range wantOrder {
		if rows[i].Player.ID != want {
			t.Fatalf("row %d = player %d, want %d", i, rows[i].Player.ID, want)
		}
	}

	if !rows[0].IsCaptain {
		t.Fatal("captain flag lost during resolution")
	}
	if rows[0].SaleValue != 55 {
		t.Fatalf("sale value = %d, want current cost 55", rows[0].SaleValue)
	}
}

func TestResolveSquad_UnknownIDProducesPlaceholder(t *testing.T) {
	snap := resolverSnapshot()

	rows := ResolveSquad([]squad.Pick{{PlayerID: 999}, {PlayerID: 1}}, snap)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	// Unknown positions rank last.
	placeholder := rows[1]
	if !placeholder.Missing {
		t.Fatal("expected placeholder row to be marked missing")
	}
	if placeholder.Player.DisplayName != "Unknown #999" {
		t.Fatalf("placeholder name = %q", placeholder.Player.DisplayName)
	}
	if placeholder.Player.Position != catalog.PositionUnknown {
		t.Fatalf("placeholder position = %s", placeholder.Player.Position)
	}
	if placeholder.SaleValue != 0 {
		t.Fatalf("placeholder sale value = %d, want 0", placeholder.SaleValue)
	}
}

func TestResolveSquad_EmptyPicks(t *testing.T) {
	rows := ResolveSquad(nil, resolverSnapshot())
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}
