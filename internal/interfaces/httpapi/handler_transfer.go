package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/fplscout/transfer-advisor/internal/usecase"
)

type transferPlanRequest struct {
	OutPlayerID int64 `json:"outPlayerId" validate:"required,gt=0"`
	InPlayerID  int64 `json:"inPlayerId" validate:"required,gt=0"`
}

type transferPlanDTO struct {
	Replace            string  `json:"replace"`
	With               string  `json:"with"`
	Position           string  `json:"position"`
	FormGain           float64 `json:"formGain"`
	PointsPerGameGain  float64 `json:"pointsPerGameGain"`
	ExpectedPointsGain float64 `json:"expectedPointsGain"`
	CostChange         int     `json:"costChange"`
}

func (h *Handler) PlanTransfer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlanTransfer")
	defer span.End()

	var req transferPlanRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	plan, err := h.transferService.Plan(ctx, req.OutPlayerID, req.InPlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "plan transfer failed",
			"out_player_id", req.OutPlayerID,
			"in_player_id", req.InPlayerID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, transferPlanDTO{
		Replace:            plan.Replace,
		With:               plan.With,
		Position:           string(plan.Position),
		FormGain:           plan.FormGain,
		PointsPerGameGain:  plan.PointsPerGameGain,
		ExpectedPointsGain: plan.ExpectedPointsGain,
		CostChange:         plan.CostChange,
	})
}

type transferExecuteRequest struct {
	EntryID       int64  `json:"entryId" validate:"required,gt=0"`
	OutPlayerID   int64  `json:"outPlayerId" validate:"required,gt=0"`
	InPlayerID    int64  `json:"inPlayerId" validate:"required,gt=0"`
	SessionCookie string `json:"sessionCookie" validate:"required"`
}

// ExecuteTransfer relays a transfer order upstream using the caller's own
// session. The order is never persisted here.
func (h *Handler) ExecuteTransfer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExecuteTransfer")
	defer span.End()

	var req transferExecuteRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.transferService.Execute(ctx, usecase.TransferOrder{
		EntryID:       req.EntryID,
		OutPlayerID:   req.OutPlayerID,
		InPlayerID:    req.InPlayerID,
		SessionCookie: req.SessionCookie,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "execute transfer failed",
			"entry_id", req.EntryID,
			"out_player_id", req.OutPlayerID,
			"in_player_id", req.InPlayerID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "submitted"})
}

func (h *Handler) decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
	}
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: malformed request body", usecase.ErrInvalidInput)
	}
	if err := h.validator.Struct(target); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
