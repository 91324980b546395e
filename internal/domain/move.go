package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// MoveCommand is the one externally visible mutation a drop produces.
// TargetOrder means "insert before the item currently at index TargetOrder" of the target group.
type MoveCommand struct {
	ItemID        string `json:"item_id"`
	TargetGroupID string `json:"target_group_id"`
	TargetOrder   int    `json:"target_order"`
}

// Validate reports whether the command is structurally usable.
func (c MoveCommand) Validate() error {
	if strings.TrimSpace(c.ItemID) == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(c.TargetGroupID) == "" {
		return ErrInvalidGroupID
	}
	if c.TargetOrder < 0 {
		return ErrInvalidOrder
	}
	return nil
}

// CompareItems orders items by group, then order, then id.
func CompareItems(a, b Item) int {
	if a.GroupID != b.GroupID {
		return strings.Compare(a.GroupID, b.GroupID)
	}
	if a.Order != b.Order {
		return cmp.Compare(a.Order, b.Order)
	}
	return strings.Compare(a.ID, b.ID)
}

// GroupItems returns the items of one group in display order.
func GroupItems(items []Item, groupID string) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.GroupID == groupID {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, CompareItems)
	return out
}

// ApplyMove computes the result of cmd against a pre-move snapshot of items.
// Both affected groups are renumbered to a dense 0..n-1 sequence. It returns the items whose
// group or order changed (already updated) and false when cmd.ItemID is not in items.
func ApplyMove(items []Item, cmd MoveCommand, now time.Time) ([]Item, bool) {
	idx := slices.IndexFunc(items, func(item Item) bool { return item.ID == cmd.ItemID })
	if idx < 0 || strings.TrimSpace(cmd.TargetGroupID) == "" {
		return nil, false
	}
	moving := items[idx]

	source := GroupItems(items, moving.GroupID)
	from := slices.IndexFunc(source, func(item Item) bool { return item.ID == moving.ID })
	source = slices.Delete(source, from, from+1)

	var target []Item
	insertAt := cmd.TargetOrder
	if cmd.TargetGroupID == moving.GroupID {
		// Positions address the pre-move sequence, so slots below the vacated one shift up by one.
		if insertAt > from {
			insertAt--
		}
		target = source
	} else {
		target = GroupItems(items, cmd.TargetGroupID)
	}
	insertAt = min(max(insertAt, 0), len(target))
	moving.GroupID = cmd.TargetGroupID
	target = slices.Insert(target, insertAt, moving)

	before := make(map[string]Item, len(source)+len(target))
	for _, item := range items {
		before[item.ID] = item
	}
	changed := make([]Item, 0, len(source)+len(target))
	renumber := func(seq []Item) {
		for order, item := range seq {
			prev := before[item.ID]
			if prev.GroupID == item.GroupID && prev.Order == order {
				continue
			}
			item.Order = order
			item.UpdatedAt = now.UTC()
			changed = append(changed, item)
		}
	}
	renumber(target)
	if cmd.TargetGroupID != items[idx].GroupID {
		renumber(source)
	}
	return changed, true
}
