package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fplscout/transfer-advisor/internal/domain/advice"
)

// TransferOrder is the upstream transfer execution payload.
type TransferOrder struct {
	EntryID       int64
	OutPlayerID   int64
	InPlayerID    int64
	SessionCookie string
}

// TransferExecutor relays a transfer order to the upstream provider.
type TransferExecutor interface {
	ExecuteTransfer(ctx context.Context, order TransferOrder) error
}

// TransferService produces pairwise transfer plans from the current
// snapshot and relays execution requests upstream.
type TransferService struct {
	catalogCache *CatalogCache
	executor     TransferExecutor
	logger       *slog.Logger
}

func NewTransferService(catalogCache *CatalogCache, executor TransferExecutor, logger *slog.Logger) *TransferService {
	if logger == nil {
		logger = slog.Default()
	}

	return &TransferService{
		catalogCache: catalogCache,
		executor:     executor,
		logger:       logger,
	}
}

// Plan compares one squad player against one catalog player across every
// performance signal. Both ids must exist in the current snapshot.
func (s *TransferService) Plan(ctx context.Context, outID, inID int64) (advice.TransferPlan, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TransferService.Plan")
	defer span.End()

	if outID <= 0 || inID <= 0 {
		return advice.TransferPlan{}, fmt.Errorf("%w: out and in player ids are required", ErrInvalidInput)
	}
	if outID == inID {
		return advice.TransferPlan{}, fmt.Errorf("%w: out and in player ids must differ", ErrInvalidInput)
	}

	snap, err := s.catalogCache.Snapshot(ctx)
	if err != nil {
		return advice.TransferPlan{}, err
	}

	out, ok := snap.Player(outID)
	if !ok {
		return advice.TransferPlan{}, fmt.Errorf("%w: player id %d", ErrNotFound, outID)
	}
	in, ok := snap.Player(inID)
	if !ok {
		return advice.TransferPlan{}, fmt.Errorf("%w: player id %d", ErrNotFound, inID)
	}

	return advice.TransferPlan{
		Replace:            out.DisplayName,
		With:               in.DisplayName,
		Position:           out.Position,
		FormGain:           round2(in.Form - out.Form),
		PointsPerGameGain:  round2(in.PointsPerGame - out.PointsPerGame),
		ExpectedPointsGain: round2(in.ExpectedPointsNext - out.ExpectedPointsNext),
		CostChange:         in.Cost - out.Cost,
	}, nil
}

// Execute relays the order to the upstream provider using the caller's
// session. The service validates inputs only; the upstream verdict is
// authoritative.
func (s *TransferService) Execute(ctx context.Context, order TransferOrder) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TransferService.Execute")
	defer span.End()

	if s.executor == nil {
		return fmt.Errorf("%w: transfer execution is not configured", ErrUpstreamUnavailable)
	}
	if order.EntryID <= 0 {
		return fmt.Errorf("%w: entry id is required", ErrInvalidInput)
	}
	if order.OutPlayerID <= 0 || order.InPlayerID <= 0 {
		return fmt.Errorf("%w: out and in player ids are required", ErrInvalidInput)
	}
	if order.OutPlayerID == order.InPlayerID {
		return fmt.Errorf("%w: out and in player ids must differ", ErrInvalidInput)
	}
	if strings.TrimSpace(order.SessionCookie) == "" {
		return fmt.Errorf("%w: session cookie is required", ErrUnauthorized)
	}

	if err := s.executor.ExecuteTransfer(ctx, order); err != nil {
		var rejection *UpstreamRejectionError
		if errors.As(err, &rejection) {
			s.logger.WarnContext(ctx, "transfer rejected by provider",
				"entry_id", order.EntryID,
				"upstream_status", rejection.StatusCode,
			)
			return fmt.Errorf("execute transfer entry_id=%d: %w", order.EntryID, err)
		}
		return mapUpstreamError(fmt.Sprintf("execute transfer entry_id=%d", order.EntryID), err)
	}

	s.logger.InfoContext(ctx, "transfer executed",
		"entry_id", order.EntryID,
		"out_player_id", order.OutPlayerID,
		"in_player_id", order.InPlayerID,
	)
	return nil
}
