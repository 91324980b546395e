package drag

import (
	"context"
	"io"
	"time"

	charmLog "github.com/charmbracelet/log"
)

// Config holds the collaborators for an Engine. Only Tuning is required; nil collaborators get
// wall-clock defaults or become no-ops.
type Config struct {
	Tuning    Tuning
	Scroller  Scroller
	Scheduler Scheduler
	Clock     func() time.Time
	Committer Committer
	Feedback  Feedback
	// OnChange receives coalesced session snapshots.
	OnChange func(Snapshot)
	Logger   *charmLog.Logger
}

// Engine owns the drop-zone registry, auto-scroll, and drag session for one board view.
type Engine struct {
	tuning     Tuning
	registry   *Registry
	autoScroll *AutoScroller
	session    *Session
	measurer   *Measurer
	notify     *notifier
	logger     *charmLog.Logger
}

var _ Controller = (*Engine)(nil)

// NewEngine constructs an engine from cfg.
func NewEngine(cfg Config) *Engine {
	tuning := cfg.Tuning.withDefaults()
	sched := cfg.Scheduler
	if sched == nil {
		sched = wallScheduler{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = charmLog.New(io.Discard)
	}

	registry := NewRegistry(tuning.Padding)
	autoScroll := NewAutoScroller(tuning, sched, clock, logger)
	autoScroll.Attach(cfg.Scroller)
	autoScroll.OnSettle(func(float64) { registry.RequestRemeasure() })

	var notify *notifier
	if cfg.OnChange != nil {
		notify = newNotifier(tuning.NotifyHz, sched, clock, cfg.OnChange)
	}
	session := NewSession(SessionConfig{
		Tuning:     tuning,
		Registry:   registry,
		AutoScroll: autoScroll,
		Committer:  cfg.Committer,
		Feedback:   cfg.Feedback,
		Logger:     logger,
		Clock:      clock,
		notify:     notify,
	})
	return &Engine{
		tuning:     tuning,
		registry:   registry,
		autoScroll: autoScroll,
		session:    session,
		measurer:   NewMeasurer(tuning.MeasureDelay),
		notify:     notify,
		logger:     logger,
	}
}

// Tuning returns the effective thresholds.
func (e *Engine) Tuning() Tuning {
	return e.tuning
}

// SetTuning applies new thresholds to every component. Registered zones are kept.
func (e *Engine) SetTuning(t Tuning) {
	t = t.withDefaults()
	e.tuning = t
	e.registry.SetPadding(t.Padding)
	e.autoScroll.SetTuning(t)
	e.session.SetTuning(t)
	e.measurer = NewMeasurer(t.MeasureDelay)
	e.logger.Debug("drag tuning updated", "padding", t.Padding, "cooldown", t.Cooldown, "column_width", t.ColumnWidth)
}

// Registry returns the drop-zone index.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// AutoScroller returns the auto-scroll controller.
func (e *Engine) AutoScroller() *AutoScroller {
	return e.autoScroll
}

// Measurer returns the deferred layout measurer.
func (e *Engine) Measurer() *Measurer {
	return e.measurer
}

// Columns binds a column's zone lifecycle to this engine.
func (e *Engine) Columns(groupID string) *ColumnZones {
	return NewColumnZones(e.registry, groupID)
}

// StartDrag arms a drag; see Session.StartDrag.
func (e *Engine) StartDrag(itemID, groupID string, origin Point) error {
	return e.session.StartDrag(itemID, groupID, origin)
}

// UpdatePosition applies the cumulative pointer translation; see Session.UpdatePosition.
func (e *Engine) UpdatePosition(translation Point) bool {
	return e.session.UpdatePosition(translation)
}

// EndDrag commits or cancels the active drag; see Session.EndDrag.
func (e *Engine) EndDrag(ctx context.Context) (Outcome, error) {
	return e.session.EndDrag(ctx)
}

// Cancel resets the active drag without committing.
func (e *Engine) Cancel() {
	e.session.Cancel()
}

// Snapshot returns the current session view.
func (e *Engine) Snapshot() Snapshot {
	return e.session.Snapshot()
}

// SetScrollOffset records a scroll offset reported by the view.
func (e *Engine) SetScrollOffset(offset float64) {
	e.autoScroll.SetOffset(offset)
}

// SetViewport records the visible and total content widths used by auto-scroll.
func (e *Engine) SetViewport(viewportWidth, contentWidth float64) {
	e.autoScroll.SetViewport(viewportWidth, contentWidth)
}

// RegisterDropZone stores a zone given in absolute coordinates.
func (e *Engine) RegisterDropZone(z DropZone) {
	e.registry.Register(z)
}

// UnregisterDropZone removes one zone.
func (e *Engine) UnregisterDropZone(groupID string, position int) {
	e.registry.Unregister(groupID, position)
}

// Close cancels any active drag and stops pending timers. The engine must not be reused.
func (e *Engine) Close() {
	e.session.Cancel()
	e.autoScroll.Stop()
	e.notify.Stop()
}
