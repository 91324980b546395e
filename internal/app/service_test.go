package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/evanschultz/tackboard/internal/domain"
)

type fakeRepo struct {
	boards   map[string]domain.Board
	groups   map[string]domain.Group
	items    map[string]domain.Item
	events   []domain.ChangeEvent
	saveErr  error
	saveCall int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		boards: map[string]domain.Board{},
		groups: map[string]domain.Group{},
		items:  map[string]domain.Item{},
	}
}

func (f *fakeRepo) CreateBoard(_ context.Context, b domain.Board) error {
	f.boards[b.ID] = b
	return nil
}

func (f *fakeRepo) UpdateBoard(_ context.Context, b domain.Board) error {
	if _, ok := f.boards[b.ID]; !ok {
		return ErrNotFound
	}
	f.boards[b.ID] = b
	return nil
}

func (f *fakeRepo) GetBoard(_ context.Context, id string) (domain.Board, error) {
	b, ok := f.boards[id]
	if !ok {
		return domain.Board{}, ErrNotFound
	}
	return b, nil
}

func (f *fakeRepo) ListBoards(_ context.Context, includeArchived bool) ([]domain.Board, error) {
	out := make([]domain.Board, 0, len(f.boards))
	for _, b := range f.boards {
		if !includeArchived && b.ArchivedAt != nil {
			continue
		}
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b domain.Board) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (f *fakeRepo) CreateGroup(_ context.Context, g domain.Group) error {
	f.groups[g.ID] = g
	return nil
}

func (f *fakeRepo) ListGroups(_ context.Context, boardID string) ([]domain.Group, error) {
	out := make([]domain.Group, 0, len(f.groups))
	for _, g := range f.groups {
		if g.BoardID == boardID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateItem(_ context.Context, i domain.Item) error {
	f.items[i.ID] = i
	f.events = append(f.events, domain.ChangeEvent{BoardID: i.BoardID, ItemID: i.ID, Operation: domain.ChangeOperationCreate})
	return nil
}

func (f *fakeRepo) GetItem(_ context.Context, id string) (domain.Item, error) {
	i, ok := f.items[id]
	if !ok {
		return domain.Item{}, ErrNotFound
	}
	return i, nil
}

func (f *fakeRepo) ListItems(_ context.Context, boardID string) ([]domain.Item, error) {
	out := make([]domain.Item, 0, len(f.items))
	for _, i := range f.items {
		if i.BoardID == boardID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateItemOrders(ctx context.Context, itemID string, plan MovePlan) error {
	item, err := f.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	groups, _ := f.ListGroups(ctx, item.BoardID)
	items, _ := f.ListItems(ctx, item.BoardID)
	rows, event, err := plan(MoveSnapshot{Item: item, Groups: groups, Items: items})
	if err != nil || len(rows) == 0 {
		return err
	}
	f.saveCall++
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, i := range rows {
		if i.BoardID != item.BoardID {
			return fmt.Errorf("item %q outside board %q", i.ID, item.BoardID)
		}
		f.items[i.ID] = i
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeRepo) ListChangeEvents(_ context.Context, boardID string, limit int) ([]domain.ChangeEvent, error) {
	out := make([]domain.ChangeEvent, 0)
	for _, e := range slices.Backward(f.events) {
		if e.BoardID == boardID {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newTestService(repo *fakeRepo) *Service {
	idx := 0
	clockTick := 0
	base := time.Date(2026, 2, 21, 10, 0, 0, 0, time.UTC)
	return NewService(repo, func() string {
		idx++
		return fmt.Sprintf("id-%d", idx)
	}, func() time.Time {
		clockTick++
		return base.Add(time.Duration(clockTick) * time.Second)
	}, ServiceConfig{AutoCreateBoardGroups: true})
}

// seedBoard creates a board with the default groups and the given titles per group.
func seedBoard(t *testing.T, svc *Service, cards map[string][]string) (domain.Board, map[string]domain.Group) {
	t.Helper()
	ctx := context.Background()
	board, err := svc.CreateBoard(ctx, "Roadmap", "")
	if err != nil {
		t.Fatalf("CreateBoard() error = %v", err)
	}
	groups, err := svc.ListGroups(ctx, board.ID)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	byTitle := map[string]domain.Group{}
	for _, g := range groups {
		byTitle[g.Title] = g
	}
	for _, g := range groups {
		for _, title := range cards[g.Title] {
			if _, err := svc.CreateItem(ctx, CreateItemInput{BoardID: board.ID, GroupID: g.ID, Title: title}); err != nil {
				t.Fatalf("CreateItem(%q) error = %v", title, err)
			}
		}
	}
	return board, byTitle
}

// titlesByGroup returns item titles per group title in display order.
func titlesByGroup(t *testing.T, svc *Service, boardID string) map[string][]string {
	t.Helper()
	state, err := svc.BoardState(context.Background(), boardID)
	if err != nil {
		t.Fatalf("BoardState() error = %v", err)
	}
	if err := state.Validate(); err != nil {
		t.Fatalf("BoardState().Validate() error = %v", err)
	}
	out := map[string][]string{}
	for _, g := range state.Groups {
		titles := []string{}
		for _, item := range g.Items {
			titles = append(titles, item.Title)
		}
		out[g.Title] = titles
	}
	return out
}

func itemByTitle(t *testing.T, repo *fakeRepo, title string) domain.Item {
	t.Helper()
	for _, item := range repo.items {
		if item.Title == title {
			return item
		}
	}
	t.Fatalf("item %q not found", title)
	return domain.Item{}
}

// TestEnsureDefaultBoardIdempotent verifies default board bootstrap.
func TestEnsureDefaultBoardIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	first, err := svc.EnsureDefaultBoard(context.Background())
	if err != nil {
		t.Fatalf("EnsureDefaultBoard() error = %v", err)
	}
	second, err := svc.EnsureDefaultBoard(context.Background())
	if err != nil {
		t.Fatalf("EnsureDefaultBoard() second error = %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same board, got %q and %q", first.ID, second.ID)
	}
	groups, err := svc.ListGroups(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(groups) != 3 || groups[0].Title != "To Do" || groups[2].Title != "Done" {
		t.Fatalf("unexpected default groups %#v", groups)
	}
}

// TestCreateGroupAppendsAndValidates verifies group creation ordering and errors.
func TestCreateGroupAppendsAndValidates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	board, _ := seedBoard(t, svc, nil)

	group, err := svc.CreateGroup(context.Background(), board.ID, "Blocked", -1)
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if group.Order != 3 {
		t.Fatalf("expected appended order 3, got %d", group.Order)
	}
	if _, err := svc.CreateGroup(context.Background(), "missing", "X", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.CreateGroup(context.Background(), board.ID, " ", 0); !errors.Is(err, domain.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
}

// TestCreateItemAppendsToGroup verifies new items land after existing ones.
func TestCreateItemAppendsToGroup(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	board, groups := seedBoard(t, svc, map[string][]string{"To Do": {"A", "B"}})

	item, err := svc.CreateItem(context.Background(), CreateItemInput{BoardID: board.ID, GroupID: groups["To Do"].ID, Title: "C"})
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	if item.Order != 2 {
		t.Fatalf("expected order 2, got %d", item.Order)
	}
	_, err = svc.CreateItem(context.Background(), CreateItemInput{BoardID: board.ID, GroupID: "nope", Title: "D"})
	if !errors.Is(err, ErrGroupMismatch) {
		t.Fatalf("expected ErrGroupMismatch, got %v", err)
	}
}

// TestMoveItemScenarios verifies persisted reorder results.
func TestMoveItemScenarios(t *testing.T) {
	tests := []struct {
		name   string
		item   string
		group  string
		order  int
		expect map[string][]string
	}{
		{
			name:  "within column to front",
			item:  "B",
			group: "To Do",
			order: 0,
			expect: map[string][]string{
				"To Do":       {"B", "A", "C"},
				"In Progress": {"X"},
				"Done":        {},
			},
		},
		{
			name:  "across columns to end",
			item:  "A",
			group: "In Progress",
			order: 1,
			expect: map[string][]string{
				"To Do":       {"B", "C"},
				"In Progress": {"X", "A"},
				"Done":        {},
			},
		},
		{
			name:  "into empty column",
			item:  "C",
			group: "Done",
			order: 0,
			expect: map[string][]string{
				"To Do":       {"A", "B"},
				"In Progress": {"X"},
				"Done":        {"C"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc := newTestService(repo)
			board, groups := seedBoard(t, svc, map[string][]string{"To Do": {"A", "B", "C"}, "In Progress": {"X"}})
			item := itemByTitle(t, repo, tt.item)

			res, err := svc.MoveItem(context.Background(), domain.MoveCommand{
				ItemID:        item.ID,
				TargetGroupID: groups[tt.group].ID,
				TargetOrder:   tt.order,
			})
			if err != nil {
				t.Fatalf("MoveItem() error = %v", err)
			}
			if !res.Applied || res.Item.GroupID != groups[tt.group].ID {
				t.Fatalf("unexpected move result %#v", res)
			}
			got := titlesByGroup(t, svc, board.ID)
			for group, want := range tt.expect {
				if !slices.Equal(got[group], want) {
					t.Fatalf("group %q = %v, want %v", group, got[group], want)
				}
			}
			events, err := svc.ListChangeEvents(context.Background(), board.ID, 1)
			if err != nil {
				t.Fatalf("ListChangeEvents() error = %v", err)
			}
			if len(events) != 1 || events[0].Operation != domain.ChangeOperationMove || events[0].ItemID != item.ID {
				t.Fatalf("unexpected latest event %#v", events)
			}
		})
	}
}

// TestMoveItemNoops verifies unknown items and own-slot drops do not write.
func TestMoveItemNoops(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	_, groups := seedBoard(t, svc, map[string][]string{"To Do": {"A", "B"}})

	res, err := svc.MoveItem(context.Background(), domain.MoveCommand{ItemID: "ghost", TargetGroupID: groups["To Do"].ID})
	if err != nil {
		t.Fatalf("MoveItem(unknown) error = %v", err)
	}
	if res.Applied {
		t.Fatalf("expected unknown item move to be a no-op, got %#v", res)
	}

	a := itemByTitle(t, repo, "A")
	res, err = svc.MoveItem(context.Background(), domain.MoveCommand{ItemID: a.ID, TargetGroupID: groups["To Do"].ID, TargetOrder: 1})
	if err != nil {
		t.Fatalf("MoveItem(own slot) error = %v", err)
	}
	if !res.Applied || len(res.Changed) != 0 {
		t.Fatalf("expected applied no-change result, got %#v", res)
	}
	if repo.saveCall != 0 {
		t.Fatalf("expected no persistence calls, got %d", repo.saveCall)
	}
}

// TestMoveItemErrors verifies validation and persistence failures surface.
func TestMoveItemErrors(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	_, groups := seedBoard(t, svc, map[string][]string{"To Do": {"A"}})
	a := itemByTitle(t, repo, "A")

	if _, err := svc.MoveItem(context.Background(), domain.MoveCommand{ItemID: a.ID, TargetGroupID: groups["Done"].ID, TargetOrder: -1}); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
	if _, err := svc.MoveItem(context.Background(), domain.MoveCommand{ItemID: a.ID, TargetGroupID: "elsewhere"}); !errors.Is(err, ErrGroupMismatch) {
		t.Fatalf("expected ErrGroupMismatch, got %v", err)
	}

	repo.saveErr = errors.New("disk full")
	if _, err := svc.MoveItem(context.Background(), domain.MoveCommand{ItemID: a.ID, TargetGroupID: groups["Done"].ID}); !errors.Is(err, repo.saveErr) {
		t.Fatalf("expected wrapped save error, got %v", err)
	}
	if got := itemByTitle(t, repo, "A"); got.GroupID != groups["To Do"].ID {
		t.Fatalf("expected item to stay put after failed save, got group %q", got.GroupID)
	}
}

// TestArchiveBoardHidesFromList verifies archive filtering.
func TestArchiveBoardHidesFromList(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	board, _ := seedBoard(t, svc, nil)

	if _, err := svc.ArchiveBoard(context.Background(), board.ID); err != nil {
		t.Fatalf("ArchiveBoard() error = %v", err)
	}
	active, err := svc.ListBoards(context.Background(), false)
	if err != nil {
		t.Fatalf("ListBoards() error = %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active boards, got %d", len(active))
	}
	all, err := svc.ListBoards(context.Background(), true)
	if err != nil {
		t.Fatalf("ListBoards(all) error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected archived board in full listing, got %d", len(all))
	}
}

// TestSanitizeGroupTemplates verifies template normalization.
func TestSanitizeGroupTemplates(t *testing.T) {
	got := sanitizeGroupTemplates([]GroupTemplate{
		{Title: "Review Queue", Order: 2},
		{Title: "  ", Order: 0},
		{ID: "backlog", Title: "Backlog", Order: 0},
		{ID: "BACKLOG", Title: "Dup", Order: 1},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 templates, got %#v", got)
	}
	if got[0].ID != "backlog" || got[1].ID != "review-queue" {
		t.Fatalf("unexpected templates %#v", got)
	}
}
