package app

import (
	"context"

	"github.com/evanschultz/tackboard/internal/domain"
)

// Repository represents repository data used by this package.
type Repository interface {
	CreateBoard(context.Context, domain.Board) error
	UpdateBoard(context.Context, domain.Board) error
	GetBoard(context.Context, string) (domain.Board, error)
	ListBoards(context.Context, bool) ([]domain.Board, error)

	CreateGroup(context.Context, domain.Group) error
	ListGroups(context.Context, string) ([]domain.Group, error)

	CreateItem(context.Context, domain.Item) error
	GetItem(context.Context, string) (domain.Item, error)
	ListItems(context.Context, string) ([]domain.Item, error)
	// UpdateItemOrders reads the item's board and writes the plan's rows and event in one write
	// transaction. An unknown item returns ErrNotFound without calling the plan.
	UpdateItemOrders(context.Context, string, MovePlan) error

	ListChangeEvents(context.Context, string, int) ([]domain.ChangeEvent, error)
}

// MoveSnapshot is a consistent read of one item's board taken inside the move transaction.
type MoveSnapshot struct {
	Item   domain.Item
	Groups []domain.Group
	Items  []domain.Item
}

// MovePlan returns the rows to write and the event to record. No rows means nothing is written.
type MovePlan func(MoveSnapshot) ([]domain.Item, domain.ChangeEvent, error)
