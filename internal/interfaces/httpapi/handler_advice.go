package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fplscout/transfer-advisor/internal/usecase"
)

var errInvalidLimit = fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput)

type adviceResponseDTO struct {
	EntryID     int64           `json:"entryId"`
	Bank        int             `json:"bank"`
	Squad       []squadRowDTO   `json:"squad"`
	Suggestions []suggestionDTO `json:"suggestions"`
}

func (h *Handler) GetAdvice(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAdvice")
	defer span.End()

	entryID, err := parseEntryID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.adviceService.Recommend(ctx, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "recommend failed", "entry_id", entryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	squadRows := make([]squadRowDTO, 0, len(result.Squad))
	for _, row := range result.Squad {
		squadRows = append(squadRows, squadRowToDTO(row, result.TeamShorts[row.Player.TeamID]))
	}

	suggestions := make([]suggestionDTO, 0, len(result.Suggestions))
	for _, s := range result.Suggestions {
		suggestions = append(suggestions, suggestionToDTO(s))
	}

	writeSuccess(ctx, w, http.StatusOK, adviceResponseDTO{
		EntryID:     entryID,
		Bank:        result.Bank,
		Squad:       squadRows,
		Suggestions: suggestions,
	})
}

type healthRowDTO struct {
	PlayerID        int64  `json:"playerId"`
	DisplayName     string `json:"displayName"`
	Position        string `json:"position"`
	Availability    string `json:"availability"`
	ChanceOfPlaying *int   `json:"chanceOfPlaying,omitempty"`
	Pickable        bool   `json:"pickable"`
	Missing         bool   `json:"missing"`
}

func (h *Handler) GetSquadHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSquadHealth")
	defer span.End()

	entryID, err := parseEntryID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.adviceService.SquadHealth(ctx, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "squad health failed", "entry_id", entryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]healthRowDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, healthRowDTO{
			PlayerID:        row.PlayerID,
			DisplayName:     row.DisplayName,
			Position:        string(row.Position),
			Availability:    string(row.Availability),
			ChanceOfPlaying: row.ChanceOfPlaying,
			Pickable:        row.Pickable,
			Missing:         row.Missing,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type adviceHistoryDTO struct {
	EntryID         int64     `json:"entryId"`
	Bank            int       `json:"bank"`
	SuggestionCount int       `json:"suggestionCount"`
	TopGain         float64   `json:"topGain"`
	Signal          string    `json:"signal"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (h *Handler) GetAdviceHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAdviceHistory")
	defer span.End()

	entryID, err := parseEntryID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(ctx, w, errInvalidLimit)
			return
		}
	}

	records, err := h.adviceService.AdviceHistory(ctx, entryID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "advice history failed", "entry_id", entryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]adviceHistoryDTO, 0, len(records))
	for _, rec := range records {
		items = append(items, adviceHistoryDTO{
			EntryID:         rec.EntryID,
			Bank:            rec.Bank,
			SuggestionCount: rec.SuggestionCount,
			TopGain:         rec.TopGain,
			Signal:          rec.Signal,
			CreatedAt:       rec.CreatedAt,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
