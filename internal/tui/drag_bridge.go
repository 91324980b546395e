package tui

import (
	"context"
	"math"

	tea "charm.land/bubbletea/v2"
	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/tackboard/internal/app"
	"github.com/evanschultz/tackboard/internal/domain"
	"github.com/evanschultz/tackboard/internal/drag"
)

// dragBridge connects the drag engine to the value-typed Model. Engine callbacks only record
// intent here; Update drains it into model state and commands.
type dragBridge struct {
	engine  *drag.Engine
	sched   *tickScheduler
	columns map[string]*drag.ColumnZones

	snap        drag.Snapshot
	scrollTo    float64
	scrollDirty bool
	commits     []domain.MoveCommand
	confirmed   []domain.MoveCommand
}

// newDragBridge constructs a drag engine whose timers, scrolling, and commits run on the tea loop.
func newDragBridge(t drag.Tuning, logger *charmLog.Logger) *dragBridge {
	b := &dragBridge{
		sched:   newTickScheduler(),
		columns: map[string]*drag.ColumnZones{},
	}
	b.engine = drag.NewEngine(drag.Config{
		Tuning:    t,
		Scheduler: b.sched,
		Scroller: drag.ScrollerFunc(func(offset float64, _ bool) {
			b.scrollTo = offset
			b.scrollDirty = true
		}),
		Committer: drag.CommitterFunc(func(_ context.Context, cmd domain.MoveCommand) error {
			b.commits = append(b.commits, cmd)
			return nil
		}),
		Feedback: drag.FeedbackFunc(func(cmd domain.MoveCommand) {
			b.confirmed = append(b.confirmed, cmd)
		}),
		OnChange: func(snap drag.Snapshot) {
			b.snap = snap
		},
		Logger: logger,
	})
	return b
}

// syncZones registers drop zones for every column of state and unmounts columns that vanished.
func (b *dragBridge) syncZones(state app.BoardState, layout boardLayout) {
	seen := make(map[string]struct{}, len(state.Groups))
	for col, group := range state.Groups {
		seen[group.ID] = struct{}{}
		zones, ok := b.columns[group.ID]
		if !ok {
			zones = b.engine.Columns(group.ID)
			b.columns[group.ID] = zones
		}
		zones.Sync(layout.slotRects(col, len(group.Items)), float64(layout.offset))
	}
	for groupID, zones := range b.columns {
		if _, ok := seen[groupID]; ok {
			continue
		}
		zones.Unmount()
		delete(b.columns, groupID)
	}
	b.engine.SetViewport(float64(layout.viewport), float64(layout.contentWidth(len(state.Groups))))
}

// stale reports whether any mounted column needs remeasuring.
func (b *dragBridge) stale() bool {
	for _, zones := range b.columns {
		if zones.Stale() {
			return true
		}
	}
	return false
}

// unmountAll drops every registered zone.
func (b *dragBridge) unmountAll() {
	for groupID, zones := range b.columns {
		zones.Unmount()
		delete(b.columns, groupID)
	}
}

// close tears the engine down.
func (b *dragBridge) close() {
	b.unmountAll()
	b.engine.Close()
}

// takeScroll returns a pending scroll request.
func (b *dragBridge) takeScroll() (int, bool) {
	if !b.scrollDirty {
		return 0, false
	}
	b.scrollDirty = false
	return int(math.Round(b.scrollTo)), true
}

// takeCommits drains queued move commands.
func (b *dragBridge) takeCommits() []domain.MoveCommand {
	out := b.commits
	b.commits = nil
	return out
}

// takeConfirmed drains confirmed drops.
func (b *dragBridge) takeConfirmed() []domain.MoveCommand {
	out := b.confirmed
	b.confirmed = nil
	return out
}

// timerCmds returns tick commands for timers scheduled by the engine.
func (b *dragBridge) timerCmds() tea.Cmd {
	return b.sched.cmds()
}
