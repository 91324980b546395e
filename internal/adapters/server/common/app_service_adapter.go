package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/tackboard/internal/app"
	"github.com/evanschultz/tackboard/internal/domain"
)

// maxMoveHistory caps one history page.
const maxMoveHistory = 500

// AppServiceAdapter maps transport contracts onto app.Service board APIs.
type AppServiceAdapter struct {
	service *app.Service
}

var _ BoardService = (*AppServiceAdapter)(nil)

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// ListBoards lists boards through app-level APIs.
func (a *AppServiceAdapter) ListBoards(ctx context.Context, in ListBoardsRequest) ([]BoardSummary, error) {
	if a == nil || a.service == nil {
		return nil, fmt.Errorf("app service adapter is not configured: %w", ErrServiceUnavailable)
	}
	boards, err := a.service.ListBoards(ctx, in.IncludeArchived)
	if err != nil {
		return nil, mapAppError("list boards", err)
	}
	out := make([]BoardSummary, 0, len(boards))
	for _, board := range boards {
		out = append(out, BoardSummary{
			ID:          board.ID,
			Slug:        board.Slug,
			Name:        board.Name,
			Description: board.Description,
			CreatedAt:   board.CreatedAt,
			UpdatedAt:   board.UpdatedAt,
			ArchivedAt:  board.ArchivedAt,
		})
	}
	return out, nil
}

// BoardState loads one board with its ordered groups and items.
func (a *AppServiceAdapter) BoardState(ctx context.Context, boardID string) (app.BoardState, error) {
	if a == nil || a.service == nil {
		return app.BoardState{}, fmt.Errorf("app service adapter is not configured: %w", ErrServiceUnavailable)
	}
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return app.BoardState{}, fmt.Errorf("board_id is required: %w", ErrInvalidRequest)
	}
	state, err := a.service.BoardState(ctx, boardID)
	if err != nil {
		return app.BoardState{}, mapAppError("board state", err)
	}
	return state, nil
}

// MoveItem applies one move command. Moving an unknown item reports Applied=false.
func (a *AppServiceAdapter) MoveItem(ctx context.Context, in MoveItemRequest) (MoveItemResult, error) {
	if a == nil || a.service == nil {
		return MoveItemResult{}, fmt.Errorf("app service adapter is not configured: %w", ErrServiceUnavailable)
	}
	cmd, err := normalizeMoveItemRequest(in)
	if err != nil {
		return MoveItemResult{}, err
	}
	res, err := a.service.MoveItem(ctx, cmd)
	if err != nil {
		return MoveItemResult{}, mapAppError("move item", err)
	}
	out := MoveItemResult{Applied: res.Applied, ItemID: cmd.ItemID, Changed: len(res.Changed)}
	if res.Applied {
		out.GroupID = res.Item.GroupID
		out.Order = res.Item.Order
	}
	return out, nil
}

// ListMoves lists newest-first board history.
func (a *AppServiceAdapter) ListMoves(ctx context.Context, in ListMovesRequest) ([]MoveEvent, error) {
	if a == nil || a.service == nil {
		return nil, fmt.Errorf("app service adapter is not configured: %w", ErrServiceUnavailable)
	}
	boardID := strings.TrimSpace(in.BoardID)
	if boardID == "" {
		return nil, fmt.Errorf("board_id is required: %w", ErrInvalidRequest)
	}
	if in.Limit < 0 || in.Limit > maxMoveHistory {
		return nil, fmt.Errorf("limit must be within 0..%d: %w", maxMoveHistory, ErrInvalidRequest)
	}
	events, err := a.service.ListChangeEvents(ctx, boardID, in.Limit)
	if err != nil {
		return nil, mapAppError("list moves", err)
	}
	out := make([]MoveEvent, 0, len(events))
	for _, event := range events {
		out = append(out, MoveEvent{
			ID:         event.ID,
			ItemID:     event.ItemID,
			Operation:  string(event.Operation),
			Metadata:   event.Metadata,
			OccurredAt: event.OccurredAt,
		})
	}
	return out, nil
}

// normalizeMoveItemRequest validates transport move input.
func normalizeMoveItemRequest(in MoveItemRequest) (domain.MoveCommand, error) {
	cmd := domain.MoveCommand{
		ItemID:        strings.TrimSpace(in.ItemID),
		TargetGroupID: strings.TrimSpace(in.TargetGroupID),
	}
	if in.TargetOrder == nil {
		return domain.MoveCommand{}, fmt.Errorf("target_order is required: %w", ErrInvalidRequest)
	}
	cmd.TargetOrder = *in.TargetOrder
	if err := cmd.Validate(); err != nil {
		return domain.MoveCommand{}, fmt.Errorf("move item: %w", errors.Join(ErrInvalidRequest, err))
	}
	return cmd, nil
}

// mapAppError maps app and domain errors onto transport error classes.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrGroupMismatch),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidGroupID),
		errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidTitle):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
