package domain

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"
)

// board builds items from group -> ordered titles; ids equal titles.
func board(groups map[string][]string) []Item {
	out := []Item{}
	for groupID, titles := range groups {
		for order, title := range titles {
			out = append(out, Item{ID: title, BoardID: "b1", GroupID: groupID, Title: title, Order: order})
		}
	}
	return out
}

// merge overlays changed rows onto items.
func merge(items, changed []Item) []Item {
	out := slices.Clone(items)
	for _, c := range changed {
		for idx := range out {
			if out[idx].ID == c.ID {
				out[idx] = c
			}
		}
	}
	return out
}

// layout renders one group as "ID(order)" pairs.
func layout(items []Item, groupID string) string {
	seq := GroupItems(items, groupID)
	parts := make([]string, 0, len(seq))
	for _, item := range seq {
		parts = append(parts, fmt.Sprintf("%s(%d)", item.ID, item.Order))
	}
	return fmt.Sprint(parts)
}

func TestApplyMoveScenarios(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		groups map[string][]string
		cmd    MoveCommand
		want   map[string]string
	}{
		{
			name:   "simple reorder to front",
			groups: map[string][]string{"todo": {"A", "B", "C"}},
			cmd:    MoveCommand{ItemID: "B", TargetGroupID: "todo", TargetOrder: 0},
			want:   map[string]string{"todo": "[B(0) A(1) C(2)]"},
		},
		{
			name:   "same group move down inserts before target slot",
			groups: map[string][]string{"todo": {"A", "B", "C"}},
			cmd:    MoveCommand{ItemID: "A", TargetGroupID: "todo", TargetOrder: 2},
			want:   map[string]string{"todo": "[B(0) A(1) C(2)]"},
		},
		{
			name:   "same group move to trailing slot",
			groups: map[string][]string{"todo": {"A", "B", "C"}},
			cmd:    MoveCommand{ItemID: "A", TargetGroupID: "todo", TargetOrder: 3},
			want:   map[string]string{"todo": "[B(0) C(1) A(2)]"},
		},
		{
			name:   "cross column move to end",
			groups: map[string][]string{"todo": {"A", "B"}, "done": {"C"}},
			cmd:    MoveCommand{ItemID: "A", TargetGroupID: "done", TargetOrder: 1},
			want:   map[string]string{"todo": "[B(0)]", "done": "[C(0) A(1)]"},
		},
		{
			name:   "cross column move to front",
			groups: map[string][]string{"todo": {"A", "B", "C"}, "done": {"D", "E"}},
			cmd:    MoveCommand{ItemID: "B", TargetGroupID: "done", TargetOrder: 0},
			want:   map[string]string{"todo": "[A(0) C(1)]", "done": "[B(0) D(1) E(2)]"},
		},
		{
			name:   "move into empty column",
			groups: map[string][]string{"todo": {"A"}},
			cmd:    MoveCommand{ItemID: "A", TargetGroupID: "done", TargetOrder: 0},
			want:   map[string]string{"todo": "[]", "done": "[A(0)]"},
		},
		{
			name:   "target order past end clamps",
			groups: map[string][]string{"todo": {"A", "B"}, "done": {"C"}},
			cmd:    MoveCommand{ItemID: "A", TargetGroupID: "done", TargetOrder: 99},
			want:   map[string]string{"todo": "[B(0)]", "done": "[C(0) A(1)]"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items := board(tc.groups)
			changed, ok := ApplyMove(items, tc.cmd, now)
			if !ok {
				t.Fatal("expected move to apply")
			}
			after := merge(items, changed)
			for groupID, want := range tc.want {
				if got := layout(after, groupID); got != want {
					t.Fatalf("group %s = %s, want %s", groupID, got, want)
				}
			}
		})
	}
}

func TestApplyMoveNoOpForOwnSlot(t *testing.T) {
	items := board(map[string][]string{"todo": {"A", "B", "C"}})
	for _, item := range items {
		changed, ok := ApplyMove(items, MoveCommand{ItemID: item.ID, TargetGroupID: item.GroupID, TargetOrder: item.Order}, time.Now())
		if !ok {
			t.Fatalf("expected move of %s to apply", item.ID)
		}
		if len(changed) != 0 {
			t.Fatalf("expected no changes moving %s to its own slot, got %#v", item.ID, changed)
		}
	}
}

func TestApplyMoveUnknownItemIsNoOp(t *testing.T) {
	items := board(map[string][]string{"todo": {"A"}})
	changed, ok := ApplyMove(items, MoveCommand{ItemID: "missing", TargetGroupID: "todo"}, time.Now())
	if ok || changed != nil {
		t.Fatalf("expected no-op, got ok=%t changed=%#v", ok, changed)
	}
}

func TestApplyMoveRepairsSparseOrders(t *testing.T) {
	items := []Item{
		{ID: "A", GroupID: "todo", Order: 3},
		{ID: "B", GroupID: "todo", Order: 7},
		{ID: "C", GroupID: "todo", Order: 7},
	}
	changed, ok := ApplyMove(items, MoveCommand{ItemID: "C", TargetGroupID: "todo", TargetOrder: 0}, time.Now())
	if !ok {
		t.Fatal("expected move to apply")
	}
	if got := layout(merge(items, changed), "todo"); got != "[C(0) A(1) B(2)]" {
		t.Fatalf("unexpected layout %s", got)
	}
}

func TestApplyMoveRandomSequencesKeepDenseOrders(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	groupIDs := []string{"todo", "doing", "done", "later"}
	items := board(map[string][]string{
		"todo":  {"a", "b", "c", "d"},
		"doing": {"e", "f"},
		"done":  {"g", "h", "i"},
	})

	for step := range 500 {
		item := items[rng.IntN(len(items))]
		target := groupIDs[rng.IntN(len(groupIDs))]
		size := len(GroupItems(items, target))
		cmd := MoveCommand{ItemID: item.ID, TargetGroupID: target, TargetOrder: rng.IntN(size + 2)}

		sizes := map[string]int{}
		for _, groupID := range groupIDs {
			sizes[groupID] = len(GroupItems(items, groupID))
		}
		changed, ok := ApplyMove(items, cmd, time.Now())
		if !ok {
			t.Fatalf("step %d: expected move to apply", step)
		}
		items = merge(items, changed)

		if item.GroupID != target {
			if got := len(GroupItems(items, item.GroupID)); got != sizes[item.GroupID]-1 {
				t.Fatalf("step %d: source size %d, want %d", step, got, sizes[item.GroupID]-1)
			}
			if got := len(GroupItems(items, target)); got != sizes[target]+1 {
				t.Fatalf("step %d: target size %d, want %d", step, got, sizes[target]+1)
			}
		}
		for _, groupID := range groupIDs {
			for want, got := range GroupItems(items, groupID) {
				if got.Order != want {
					t.Fatalf("step %d: group %s not dense: %s", step, groupID, layout(items, groupID))
				}
			}
		}
	}
}

func TestMoveCommandValidate(t *testing.T) {
	if err := (MoveCommand{TargetGroupID: "g"}).Validate(); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if err := (MoveCommand{ItemID: "i"}).Validate(); err != ErrInvalidGroupID {
		t.Fatalf("expected ErrInvalidGroupID, got %v", err)
	}
	if err := (MoveCommand{ItemID: "i", TargetGroupID: "g", TargetOrder: -1}).Validate(); err != ErrInvalidOrder {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
	if err := (MoveCommand{ItemID: "i", TargetGroupID: "g"}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
