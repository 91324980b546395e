// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/evanschultz/tackboard/internal/app"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrServiceUnavailable reports a missing backing service.
var ErrServiceUnavailable = errors.New("service unavailable")

// BoardSummary is one row of the board listing.
type BoardSummary struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// ListBoardsRequest captures board listing filters.
type ListBoardsRequest struct {
	IncludeArchived bool
}

// MoveItemRequest captures one card move. TargetOrder addresses the pre-move slot sequence.
type MoveItemRequest struct {
	ItemID        string `json:"item_id"`
	TargetGroupID string `json:"target_group_id"`
	TargetOrder   *int   `json:"target_order"`
}

// MoveItemResult reports the persisted effect of one move.
type MoveItemResult struct {
	Applied bool   `json:"applied"`
	ItemID  string `json:"item_id"`
	GroupID string `json:"group_id,omitempty"`
	Order   int    `json:"order"`
	Changed int    `json:"changed"`
}

// MoveEvent is one row of the move history feed.
type MoveEvent struct {
	ID         int64             `json:"id"`
	ItemID     string            `json:"item_id"`
	Operation  string            `json:"operation"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// ListMovesRequest captures history feed input.
type ListMovesRequest struct {
	BoardID string
	Limit   int
}

// BoardService captures the board operations exposed by transports.
type BoardService interface {
	ListBoards(context.Context, ListBoardsRequest) ([]BoardSummary, error)
	BoardState(context.Context, string) (app.BoardState, error)
	MoveItem(context.Context, MoveItemRequest) (MoveItemResult, error)
	ListMoves(context.Context, ListMovesRequest) ([]MoveEvent, error)
}
