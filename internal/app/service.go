package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/evanschultz/tackboard/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	GroupTemplates         []GroupTemplate
	AutoCreateBoardGroups  bool
	DefaultChangeEventPage int
}

// GroupTemplate describes one group created for every new board.
type GroupTemplate struct {
	ID    string
	Title string
	Order int
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service represents service data used by this package.
type Service struct {
	repo             Repository
	idGen            IDGenerator
	clock            Clock
	groupTemplates   []GroupTemplate
	autoBoardGroups  bool
	changeEventLimit int
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	templates := sanitizeGroupTemplates(cfg.GroupTemplates)
	if len(templates) == 0 {
		templates = defaultGroupTemplates()
	}
	limit := cfg.DefaultChangeEventPage
	if limit <= 0 {
		limit = 50
	}
	return &Service{
		repo:             repo,
		idGen:            idGen,
		clock:            clock,
		groupTemplates:   templates,
		autoBoardGroups:  cfg.AutoCreateBoardGroups,
		changeEventLimit: limit,
	}
}

// EnsureDefaultBoard returns the first active board, creating one with default groups if none exist.
func (s *Service) EnsureDefaultBoard(ctx context.Context) (domain.Board, error) {
	boards, err := s.repo.ListBoards(ctx, false)
	if err != nil {
		return domain.Board{}, err
	}
	if len(boards) > 0 {
		return boards[0], nil
	}

	now := s.clock()
	board, err := domain.NewBoard(s.idGen(), "Inbox", "Default board", now)
	if err != nil {
		return domain.Board{}, err
	}
	if err := s.repo.CreateBoard(ctx, board); err != nil {
		return domain.Board{}, err
	}
	if err := s.createDefaultGroups(ctx, board.ID, now); err != nil {
		return domain.Board{}, err
	}
	return board, nil
}

// CreateBoard creates board.
func (s *Service) CreateBoard(ctx context.Context, name, description string) (domain.Board, error) {
	now := s.clock()
	board, err := domain.NewBoard(s.idGen(), name, description, now)
	if err != nil {
		return domain.Board{}, err
	}
	if err := s.repo.CreateBoard(ctx, board); err != nil {
		return domain.Board{}, err
	}
	if s.autoBoardGroups {
		if err := s.createDefaultGroups(ctx, board.ID, now); err != nil {
			return domain.Board{}, err
		}
	}
	return board, nil
}

// ArchiveBoard archives a board; archived boards are hidden from default listings.
func (s *Service) ArchiveBoard(ctx context.Context, boardID string) (domain.Board, error) {
	board, err := s.repo.GetBoard(ctx, boardID)
	if err != nil {
		return domain.Board{}, err
	}
	board.Archive(s.clock())
	if err := s.repo.UpdateBoard(ctx, board); err != nil {
		return domain.Board{}, err
	}
	return board, nil
}

// ListBoards lists boards.
func (s *Service) ListBoards(ctx context.Context, includeArchived bool) ([]domain.Board, error) {
	return s.repo.ListBoards(ctx, includeArchived)
}

// CreateGroup appends a group to boardID. A negative order places it after the last group.
func (s *Service) CreateGroup(ctx context.Context, boardID, title string, order int) (domain.Group, error) {
	if _, err := s.repo.GetBoard(ctx, boardID); err != nil {
		return domain.Group{}, err
	}
	if order < 0 {
		groups, err := s.repo.ListGroups(ctx, boardID)
		if err != nil {
			return domain.Group{}, err
		}
		order = len(groups)
	}
	group, err := domain.NewGroup(s.idGen(), boardID, title, order, s.clock())
	if err != nil {
		return domain.Group{}, err
	}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return domain.Group{}, err
	}
	return group, nil
}

// ListGroups lists the groups of boardID in display order.
func (s *Service) ListGroups(ctx context.Context, boardID string) ([]domain.Group, error) {
	groups, err := s.repo.ListGroups(ctx, boardID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(groups, compareGroups)
	return groups, nil
}

// CreateItemInput holds input values for create item operations.
type CreateItemInput struct {
	BoardID     string
	GroupID     string
	Title       string
	Description string
	Fields      map[string]string
}

// CreateItem creates an item at the end of its group.
func (s *Service) CreateItem(ctx context.Context, in CreateItemInput) (domain.Item, error) {
	groups, err := s.repo.ListGroups(ctx, in.BoardID)
	if err != nil {
		return domain.Item{}, err
	}
	if !slices.ContainsFunc(groups, func(g domain.Group) bool { return g.ID == in.GroupID }) {
		return domain.Item{}, fmt.Errorf("%w: group %q", ErrGroupMismatch, in.GroupID)
	}
	items, err := s.repo.ListItems(ctx, in.BoardID)
	if err != nil {
		return domain.Item{}, err
	}
	item, err := domain.NewItem(domain.ItemInput{
		ID:          s.idGen(),
		BoardID:     in.BoardID,
		GroupID:     in.GroupID,
		Title:       in.Title,
		Description: in.Description,
		Order:       len(domain.GroupItems(items, in.GroupID)),
		Fields:      in.Fields,
	}, s.clock())
	if err != nil {
		return domain.Item{}, err
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

// ListItems lists the items of boardID ordered by group, then order.
func (s *Service) ListItems(ctx context.Context, boardID string) ([]domain.Item, error) {
	items, err := s.repo.ListItems(ctx, boardID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, domain.CompareItems)
	return items, nil
}

// MoveResult reports the effect of one move command.
type MoveResult struct {
	Applied bool
	Item    domain.Item
	Changed []domain.Item
}

// MoveItem applies cmd against a snapshot read in the same transaction that persists the
// renumbering, so concurrent moves never write from stale orders.
// Moving an unknown item is a no-op, not an error.
func (s *Service) MoveItem(ctx context.Context, cmd domain.MoveCommand) (MoveResult, error) {
	if err := cmd.Validate(); err != nil {
		return MoveResult{}, err
	}
	var (
		result  MoveResult
		planned bool
		planErr error
	)
	err := s.repo.UpdateItemOrders(ctx, cmd.ItemID, func(snap MoveSnapshot) ([]domain.Item, domain.ChangeEvent, error) {
		planned = true
		result, planErr = MoveResult{}, nil
		current := snap.Item
		if !slices.ContainsFunc(snap.Groups, func(g domain.Group) bool { return g.ID == cmd.TargetGroupID }) {
			planErr = fmt.Errorf("%w: group %q", ErrGroupMismatch, cmd.TargetGroupID)
			return nil, domain.ChangeEvent{}, planErr
		}

		now := s.clock()
		changed, ok := domain.ApplyMove(snap.Items, cmd, now)
		if !ok {
			return nil, domain.ChangeEvent{}, nil
		}
		moved := current
		for _, item := range changed {
			if item.ID == cmd.ItemID {
				moved = item
			}
		}
		result = MoveResult{Applied: true, Item: moved, Changed: changed}
		if len(changed) == 0 {
			return nil, domain.ChangeEvent{}, nil
		}
		return changed, domain.ChangeEvent{
			BoardID:   current.BoardID,
			ItemID:    current.ID,
			Operation: domain.ChangeOperationMove,
			Metadata: map[string]string{
				"from_group_id": current.GroupID,
				"from_order":    strconv.Itoa(current.Order),
				"to_group_id":   moved.GroupID,
				"to_order":      strconv.Itoa(moved.Order),
				"renumbered":    strconv.Itoa(len(changed)),
			},
			OccurredAt: now.UTC(),
		}, nil
	})
	switch {
	case planErr != nil:
		return MoveResult{}, planErr
	case !planned && errors.Is(err, ErrNotFound):
		return MoveResult{}, nil
	case err != nil:
		return MoveResult{}, fmt.Errorf("persist move of %q: %w", cmd.ItemID, err)
	}
	return result, nil
}

// ListChangeEvents lists newest-first history for boardID. limit <= 0 uses the configured page size.
func (s *Service) ListChangeEvents(ctx context.Context, boardID string, limit int) ([]domain.ChangeEvent, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return nil, domain.ErrInvalidID
	}
	if limit <= 0 {
		limit = s.changeEventLimit
	}
	return s.repo.ListChangeEvents(ctx, boardID, limit)
}

// compareGroups orders groups by order, then id.
func compareGroups(a, b domain.Group) int {
	if a.Order != b.Order {
		return a.Order - b.Order
	}
	return strings.Compare(a.ID, b.ID)
}

// defaultGroupTemplates returns the groups every new board starts with.
func defaultGroupTemplates() []GroupTemplate {
	return []GroupTemplate{
		{ID: "todo", Title: "To Do", Order: 0},
		{ID: "progress", Title: "In Progress", Order: 1},
		{ID: "done", Title: "Done", Order: 2},
	}
}

// sanitizeGroupTemplates trims, dedupes, and orders configured templates.
func sanitizeGroupTemplates(in []GroupTemplate) []GroupTemplate {
	if len(in) == 0 {
		return nil
	}
	out := make([]GroupTemplate, 0, len(in))
	seen := map[string]struct{}{}
	for idx, tpl := range in {
		tpl.Title = strings.TrimSpace(tpl.Title)
		tpl.ID = strings.TrimSpace(strings.ToLower(tpl.ID))
		if tpl.Title == "" {
			continue
		}
		if tpl.ID == "" {
			tpl.ID = normalizeTemplateID(tpl.Title)
		}
		if _, ok := seen[tpl.ID]; ok {
			continue
		}
		seen[tpl.ID] = struct{}{}
		if tpl.Order < 0 {
			tpl.Order = idx
		}
		out = append(out, tpl)
	}
	slices.SortStableFunc(out, func(a, b GroupTemplate) int {
		return a.Order - b.Order
	})
	return out
}

// normalizeTemplateID derives a stable template id from a title.
func normalizeTemplateID(title string) string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	return strings.Join(fields, "-")
}

// createDefaultGroups creates the configured groups for a new board.
func (s *Service) createDefaultGroups(ctx context.Context, boardID string, now time.Time) error {
	for idx, tpl := range s.groupTemplates {
		group, err := domain.NewGroup(s.idGen(), boardID, tpl.Title, idx, now)
		if err != nil {
			return fmt.Errorf("create default group %q: %w", tpl.Title, err)
		}
		if err := s.repo.CreateGroup(ctx, group); err != nil {
			return fmt.Errorf("persist default group %q: %w", tpl.Title, err)
		}
	}
	return nil
}
