package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
	"github.com/fplscout/transfer-advisor/internal/usecase"
)

type catalogListDTO struct {
	FetchedAt time.Time   `json:"fetchedAt"`
	Count     int         `json:"count"`
	Players   []playerDTO `json:"players"`
}

// ListPlayers serves the current catalog snapshot with optional filters.
// Responses within one snapshot lifetime are consistent with each other.
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	query := r.URL.Query()

	var position catalog.Position
	if raw := strings.TrimSpace(query.Get("position")); raw != "" {
		position = catalog.Position(strings.ToUpper(raw))
		switch position {
		case catalog.PositionKeeper, catalog.PositionDefender, catalog.PositionMidfielder, catalog.PositionForward:
		default:
			writeError(ctx, w, fmt.Errorf("%w: unknown position %q", usecase.ErrInvalidInput, raw))
			return
		}
	}

	maxCost := 0
	if raw := strings.TrimSpace(query.Get("max_cost")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: max_cost must be a positive integer in tenths", usecase.ErrInvalidInput))
			return
		}
		maxCost = parsed
	}

	team := strings.TrimSpace(query.Get("team"))
	search := strings.ToLower(strings.TrimSpace(query.Get("q")))

	snap, err := h.adviceService.CatalogSnapshot(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "catalog snapshot failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	all := snap.Players()
	items := make([]playerDTO, 0, len(all))
	for _, p := range all {
		if position != "" && p.Position != position {
			continue
		}
		if maxCost > 0 && p.Cost > maxCost {
			continue
		}
		teamShort := snap.TeamShort(p.TeamID)
		if team != "" && !strings.EqualFold(team, teamShort) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.DisplayName), search) {
			continue
		}
		items = append(items, playerToDTO(p, teamShort))
	}

	writeSuccess(ctx, w, http.StatusOK, catalogListDTO{
		FetchedAt: snap.FetchedAt(),
		Count:     len(items),
		Players:   items,
	})
}

// RefreshCatalog invalidates the snapshot and fetches a new one. Guarded by
// the internal job token.
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshCatalog")
	defer span.End()

	h.catalogCache.Invalidate()

	snap, err := h.catalogCache.Snapshot(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "forced catalog refresh failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "catalog refreshed",
		"players", snap.PlayerCount(),
		"teams", snap.TeamCount(),
	)
	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"fetchedAt": snap.FetchedAt(),
		"players":   snap.PlayerCount(),
		"teams":     snap.TeamCount(),
	})
}
