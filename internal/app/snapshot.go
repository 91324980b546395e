package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evanschultz/tackboard/internal/domain"
)

// BoardStateVersion defines a package constant value.
const BoardStateVersion = "tackboard.board_state.v1"

// BoardState is a read model of one board with its groups and their ordered items.
type BoardState struct {
	Version    string       `json:"version"`
	ObservedAt time.Time    `json:"observed_at"`
	Board      StateBoard   `json:"board"`
	Groups     []StateGroup `json:"groups"`
}

// StateBoard represents board data in a board state.
type StateBoard struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// StateGroup represents one group and its items in display order.
type StateGroup struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Order int         `json:"order"`
	Items []StateItem `json:"items"`
}

// StateItem represents item data in a board state.
type StateItem struct {
	ID          string            `json:"id"`
	GroupID     string            `json:"group_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Order       int               `json:"order"`
	Fields      map[string]string `json:"fields,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// BoardState loads boardID with all groups and items.
func (s *Service) BoardState(ctx context.Context, boardID string) (BoardState, error) {
	board, err := s.repo.GetBoard(ctx, boardID)
	if err != nil {
		return BoardState{}, err
	}
	groups, err := s.ListGroups(ctx, boardID)
	if err != nil {
		return BoardState{}, err
	}
	items, err := s.ListItems(ctx, boardID)
	if err != nil {
		return BoardState{}, err
	}

	state := BoardState{
		Version:    BoardStateVersion,
		ObservedAt: s.clock().UTC(),
		Board:      stateBoardFromDomain(board),
		Groups:     make([]StateGroup, 0, len(groups)),
	}
	for _, group := range groups {
		sg := StateGroup{ID: group.ID, Title: group.Title, Order: group.Order, Items: []StateItem{}}
		for _, item := range domain.GroupItems(items, group.ID) {
			sg.Items = append(sg.Items, stateItemFromDomain(item))
		}
		state.Groups = append(state.Groups, sg)
	}
	return state, nil
}

// Group returns the group with id.
func (b BoardState) Group(id string) (StateGroup, bool) {
	idx := slices.IndexFunc(b.Groups, func(g StateGroup) bool { return g.ID == id })
	if idx < 0 {
		return StateGroup{}, false
	}
	return b.Groups[idx], true
}

// FindItem returns the item with id and the group holding it.
func (b BoardState) FindItem(id string) (StateItem, StateGroup, bool) {
	for _, group := range b.Groups {
		for _, item := range group.Items {
			if item.ID == id {
				return item, group, true
			}
		}
	}
	return StateItem{}, StateGroup{}, false
}

// Validate reports whether every group holds a dense 0..n-1 order sequence.
func (b BoardState) Validate() error {
	if strings.TrimSpace(b.Board.ID) == "" {
		return fmt.Errorf("board state: %w", domain.ErrInvalidID)
	}
	seen := map[string]struct{}{}
	for _, group := range b.Groups {
		for idx, item := range group.Items {
			if item.Order != idx {
				return fmt.Errorf("group %q item %q has order %d at index %d: %w", group.ID, item.ID, item.Order, idx, domain.ErrInvalidOrder)
			}
			if item.GroupID != group.ID {
				return fmt.Errorf("item %q listed under %q: %w", item.ID, group.ID, domain.ErrInvalidGroupID)
			}
			if _, ok := seen[item.ID]; ok {
				return fmt.Errorf("item %q appears twice: %w", item.ID, domain.ErrInvalidID)
			}
			seen[item.ID] = struct{}{}
		}
	}
	return nil
}

// stateBoardFromDomain converts a domain board.
func stateBoardFromDomain(b domain.Board) StateBoard {
	return StateBoard{
		ID:          b.ID,
		Slug:        b.Slug,
		Name:        b.Name,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		ArchivedAt:  copyTimePtr(b.ArchivedAt),
	}
}

// stateItemFromDomain converts a domain item.
func stateItemFromDomain(i domain.Item) StateItem {
	return StateItem{
		ID:          i.ID,
		GroupID:     i.GroupID,
		Title:       i.Title,
		Description: i.Description,
		Order:       i.Order,
		Fields:      i.Fields,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// copyTimePtr handles copy time ptr.
func copyTimePtr(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}
