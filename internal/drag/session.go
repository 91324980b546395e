package drag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	charmLog "github.com/charmbracelet/log"

	"github.com/evanschultz/tackboard/internal/domain"
)

// ErrDragActive is returned when a drag starts while another is in progress.
var ErrDragActive = errors.New("drag already active")

// ErrInvalidDrag is returned when a drag starts without an item or source group.
var ErrInvalidDrag = errors.New("invalid drag")

// State is the lifecycle phase of a drag session.
type State int

// State values.
const (
	StateIdle State = iota
	StateArmed
	StateDragging
)

// String returns a lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateDragging:
		return "dragging"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Committer applies a resolved move.
type Committer interface {
	Commit(ctx context.Context, cmd domain.MoveCommand) error
}

// CommitterFunc adapts a function into a Committer.
type CommitterFunc func(ctx context.Context, cmd domain.MoveCommand) error

// Commit calls f.
func (f CommitterFunc) Commit(ctx context.Context, cmd domain.MoveCommand) error {
	return f(ctx, cmd)
}

// Feedback confirms a committed drop to the user.
type Feedback interface {
	Confirm(cmd domain.MoveCommand)
}

// FeedbackFunc adapts a function into Feedback.
type FeedbackFunc func(cmd domain.MoveCommand)

// Confirm calls f.
func (f FeedbackFunc) Confirm(cmd domain.MoveCommand) {
	f(cmd)
}

// Snapshot is a read-only view of the session used by rendering code.
type Snapshot struct {
	State          State   `json:"state"`
	DraggingItemID string  `json:"dragging_item_id,omitempty"`
	SourceGroupID  string  `json:"source_group_id,omitempty"`
	Origin         Point   `json:"origin"`
	Translation    Point   `json:"translation"`
	Position       Point   `json:"position"`
	Target         *Target `json:"target,omitempty"`
	HoveredGroupID string  `json:"hovered_group_id,omitempty"`
}

// Active reports whether a drag is armed or in progress.
func (s Snapshot) Active() bool {
	return s.State != StateIdle
}

// Outcome reports how a drag ended.
type Outcome struct {
	Committed bool
	Command   domain.MoveCommand
	// Elapsed runs from StartDrag to EndDrag on the session clock.
	Elapsed time.Duration
}

// Controller is the capability handed to card and column code.
type Controller interface {
	StartDrag(itemID, groupID string, origin Point) error
	UpdatePosition(translation Point) bool
	EndDrag(ctx context.Context) (Outcome, error)
	Cancel()
	Snapshot() Snapshot
}

// SessionConfig holds collaborators for a Session.
type SessionConfig struct {
	Tuning     Tuning
	Registry   *Registry
	AutoScroll *AutoScroller
	Committer  Committer
	Feedback   Feedback
	Logger     *charmLog.Logger
	// Clock defaults to time.Now.
	Clock  func() time.Time
	notify *notifier
}

// Session tracks exactly one drag at a time.
type Session struct {
	mu         sync.Mutex
	tuning     Tuning
	registry   *Registry
	autoScroll *AutoScroller
	committer  Committer
	feedback   Feedback
	logger     *charmLog.Logger
	notify     *notifier
	now        func() time.Time

	state          State
	itemID         string
	sourceGroupID  string
	origin         Point
	translation    Point
	position       Point
	target         *Target
	hoveredGroupID string
	startedAt      time.Time
}

var _ Controller = (*Session)(nil)

// NewSession constructs an idle session. A nil registry gets an empty one.
func NewSession(cfg SessionConfig) *Session {
	tuning := cfg.Tuning.withDefaults()
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry(tuning.Padding)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = charmLog.New(io.Discard)
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Session{
		tuning:     tuning,
		registry:   registry,
		autoScroll: cfg.AutoScroll,
		committer:  cfg.Committer,
		feedback:   cfg.Feedback,
		logger:     logger,
		notify:     cfg.notify,
		now:        now,
	}
}

// SetTuning swaps card geometry used for hit-testing.
func (s *Session) SetTuning(t Tuning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tuning = t.withDefaults()
}

// StartDrag arms a drag of itemID, captured at origin in screen coordinates.
func (s *Session) StartDrag(itemID, groupID string, origin Point) error {
	if itemID == "" || groupID == "" {
		return ErrInvalidDrag
	}
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrDragActive
	}
	s.state = StateArmed
	s.itemID = itemID
	s.sourceGroupID = groupID
	s.origin = origin
	s.translation = Point{}
	s.position = origin
	s.target = nil
	s.hoveredGroupID = ""
	s.startedAt = s.now()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.autoScroll != nil {
		s.autoScroll.Begin(origin)
	}
	s.logger.Debug("drag armed", "item_id", itemID, "group_id", groupID, "x", origin.X, "y", origin.Y)
	s.notify.publish(snap)
	return nil
}

// UpdatePosition applies the cumulative pointer translation since arming. It reports whether a
// drag is active; updates while idle are ignored.
func (s *Session) UpdatePosition(translation Point) bool {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return false
	}
	s.state = StateDragging
	s.translation = translation
	s.position = s.origin.Add(translation)

	var offset float64
	if s.autoScroll != nil {
		offset = s.autoScroll.Offset()
	}
	center := Absolute(CardCenter(s.position, s.tuning), offset)
	if target, ok := s.registry.QueryNearest(center); ok {
		s.target = &target
		s.hoveredGroupID = target.GroupID
	} else {
		s.target = nil
		s.hoveredGroupID = ""
	}
	position := s.position
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.autoScroll != nil {
		s.autoScroll.MaybeScroll(position)
	}
	s.notify.publish(snap)
	return true
}

// EndDrag finishes the drag. With a resolved target the move is committed and confirmed;
// without one the drag is cancelled. The session is idle afterwards either way.
func (s *Session) EndDrag(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return Outcome{}, nil
	}
	target := s.target
	itemID := s.itemID
	elapsed := s.now().Sub(s.startedAt)
	s.resetLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	defer s.publishFinal(snap)

	if target == nil {
		s.logger.Debug("drag cancelled", "item_id", itemID, "reason", "no target")
		return Outcome{}, nil
	}
	cmd := domain.MoveCommand{ItemID: itemID, TargetGroupID: target.GroupID, TargetOrder: target.Position}
	if s.committer != nil {
		if err := s.committer.Commit(ctx, cmd); err != nil {
			return Outcome{Command: cmd, Elapsed: elapsed}, fmt.Errorf("commit move %q: %w", itemID, err)
		}
	}
	if s.feedback != nil {
		s.feedback.Confirm(cmd)
	}
	s.logger.Debug("drag committed", "item_id", itemID, "group_id", cmd.TargetGroupID, "order", cmd.TargetOrder, "elapsed", elapsed)
	return Outcome{Committed: true, Command: cmd, Elapsed: elapsed}, nil
}

// Cancel resets an active drag without committing.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	itemID := s.itemID
	s.resetLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.logger.Debug("drag cancelled", "item_id", itemID, "reason", "explicit")
	s.publishFinal(snap)
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// publishFinal delivers the idle snapshot past any coalesced samples.
func (s *Session) publishFinal(snap Snapshot) {
	s.notify.Flush()
	s.notify.publish(snap)
	s.notify.Flush()
}

// resetLocked returns the session to idle; callers hold s.mu.
func (s *Session) resetLocked() {
	s.state = StateIdle
	s.itemID = ""
	s.sourceGroupID = ""
	s.origin = Point{}
	s.translation = Point{}
	s.position = Point{}
	s.target = nil
	s.hoveredGroupID = ""
	s.startedAt = time.Time{}
}

// snapshotLocked copies session state; callers hold s.mu.
func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:          s.state,
		DraggingItemID: s.itemID,
		SourceGroupID:  s.sourceGroupID,
		Origin:         s.origin,
		Translation:    s.translation,
		Position:       s.position,
		HoveredGroupID: s.hoveredGroupID,
	}
	if s.target != nil {
		target := *s.target
		snap.Target = &target
	}
	return snap
}
