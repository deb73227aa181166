package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fplscout/transfer-advisor/internal/domain/advice"
	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
	"github.com/fplscout/transfer-advisor/internal/domain/squad"
	"github.com/fplscout/transfer-advisor/internal/usecase"
)

type Handler struct {
	adviceService   *usecase.AdviceService
	transferService *usecase.TransferService
	catalogCache    *usecase.CatalogCache
	logger          *slog.Logger
	validator       *validator.Validate
}

func NewHandler(
	adviceService *usecase.AdviceService,
	transferService *usecase.TransferService,
	catalogCache *usecase.CatalogCache,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		adviceService:   adviceService,
		transferService: transferService,
		catalogCache:    catalogCache,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseEntryID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("entryID"))
	entryID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || entryID <= 0 {
		return 0, fmt.Errorf("%w: entry id must be a positive integer", usecase.ErrInvalidInput)
	}
	return entryID, nil
}

type playerDTO struct {
	ID              int64   `json:"id"`
	DisplayName     string  `json:"displayName"`
	Team            string  `json:"team"`
	Position        string  `json:"position"`
	Cost            int     `json:"cost"`
	DisplayPrice    string  `json:"displayPrice"`
	Form            float64 `json:"form"`
	PointsPerGame   float64 `json:"pointsPerGame"`
	ExpectedPoints  float64 `json:"expectedPoints"`
	Availability    string  `json:"availability"`
	ChanceOfPlaying *int    `json:"chanceOfPlaying,omitempty"`
	PhotoURL        string  `json:"photoUrl,omitempty"`
	ProfileURL      string  `json:"profileUrl,omitempty"`
}

func playerToDTO(p catalog.Player, teamShort string) playerDTO {
	return playerDTO{
		ID:              p.ID,
		DisplayName:     p.DisplayName,
		Team:            teamShort,
		Position:        string(p.Position),
		Cost:            p.Cost,
		DisplayPrice:    p.DisplayPrice(),
		Form:            p.Form,
		PointsPerGame:   p.PointsPerGame,
		ExpectedPoints:  p.ExpectedPointsNext,
		Availability:    string(p.Availability),
		ChanceOfPlaying: p.ChanceOfPlaying,
		PhotoURL:        p.PhotoURL,
		ProfileURL:      p.ProfileURL,
	}
}

type squadRowDTO struct {
	PlayerID      int64  `json:"playerId"`
	DisplayName   string `json:"displayName"`
	Team          string `json:"team"`
	Position      string `json:"position"`
	SaleValue     int    `json:"saleValue"`
	IsCaptain     bool   `json:"isCaptain"`
	IsViceCaptain bool   `json:"isViceCaptain"`
	Missing       bool   `json:"missing"`
}

func squadRowToDTO(row squad.Row, teamShort string) squadRowDTO {
	return squadRowDTO{
		PlayerID:      row.Player.ID,
		DisplayName:   row.Player.DisplayName,
		Team:          teamShort,
		Position:      string(row.Player.Position),
		SaleValue:     row.SaleValue,
		IsCaptain:     row.IsCaptain,
		IsViceCaptain: row.IsViceCaptain,
		Missing:       row.Missing,
	}
}

type suggestionPlayerDTO struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"displayName"`
	Position    string  `json:"position"`
	Team        string  `json:"team"`
	Cost        int     `json:"cost"`
	Signal      float64 `json:"signal"`
}

type suggestionDTO struct {
	Out          suggestionPlayerDTO `json:"out"`
	In           suggestionPlayerDTO `json:"in"`
	ExpectedGain float64             `json:"expectedGain"`
	CostDelta    int                 `json:"costDelta"`
	Affordable   bool                `json:"affordable"`
}

func suggestionToDTO(s advice.Suggestion) suggestionDTO {
	return suggestionDTO{
		Out:          summaryToDTO(s.Out),
		In:           summaryToDTO(s.In),
		ExpectedGain: s.ExpectedGain,
		CostDelta:    s.CostDelta,
		Affordable:   s.Affordable,
	}
}

func summaryToDTO(s advice.PlayerSummary) suggestionPlayerDTO {
	return suggestionPlayerDTO{
		ID:          s.ID,
		DisplayName: s.DisplayName,
		Position:    string(s.Position),
		Team:        s.Team,
		Cost:        s.Cost,
		Signal:      s.Signal,
	}
}
