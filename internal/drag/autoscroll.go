package drag

import (
	"io"
	"math"
	"sync"
	"time"

	charmLog "github.com/charmbracelet/log"
)

// Scroller performs programmatic horizontal scrolling of the column view.
type Scroller interface {
	ScrollTo(offset float64, animated bool)
}

// ScrollerFunc adapts a function into a Scroller.
type ScrollerFunc func(offset float64, animated bool)

// ScrollTo calls f.
func (f ScrollerFunc) ScrollTo(offset float64, animated bool) {
	f(offset, animated)
}

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. Implementations decide which goroutine f runs on.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// wallScheduler schedules callbacks with time.AfterFunc.
type wallScheduler struct{}

// AfterFunc schedules f on its own goroutine.
func (wallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// AutoScroller snaps the column view one column left or right while a card is held near a
// viewport edge.
type AutoScroller struct {
	mu       sync.Mutex
	tuning   Tuning
	scroller Scroller
	sched    Scheduler
	now      func() time.Time
	logger   *charmLog.Logger
	onSettle func(offset float64)

	viewportWidth float64
	contentWidth  float64
	offset        float64
	origin        Point
	lastScroll    time.Time
	pending       Timer
}

// NewAutoScroller constructs an auto-scroller. A nil scheduler uses wall-clock timers and a nil
// clock uses time.Now.
func NewAutoScroller(tuning Tuning, sched Scheduler, now func() time.Time, logger *charmLog.Logger) *AutoScroller {
	if sched == nil {
		sched = wallScheduler{}
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = charmLog.New(io.Discard)
	}
	return &AutoScroller{
		tuning: tuning.withDefaults(),
		sched:  sched,
		now:    now,
		logger: logger,
	}
}

// Attach sets the scroll target. A nil scroller makes every operation a no-op.
func (a *AutoScroller) Attach(s Scroller) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scroller = s
}

// OnSettle registers a callback invoked after a triggered scroll lands.
func (a *AutoScroller) OnSettle(fn func(offset float64)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSettle = fn
}

// SetTuning swaps thresholds; the cooldown clock is kept.
func (a *AutoScroller) SetTuning(t Tuning) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tuning = t.withDefaults()
}

// SetViewport records the visible width and the total content width (0 when unknown).
func (a *AutoScroller) SetViewport(viewportWidth, contentWidth float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.viewportWidth = max(viewportWidth, 0)
	a.contentWidth = max(contentWidth, 0)
}

// SetOffset records a scroll offset reported by the view, e.g. after a manual scroll.
func (a *AutoScroller) SetOffset(offset float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.offset = max(offset, 0)
}

// Offset returns the tracked scroll offset used for coordinate conversion.
func (a *AutoScroller) Offset() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.offset
}

// Begin records the origin of a new drag for the minimum-distance gate.
func (a *AutoScroller) Begin(origin Point) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.origin = origin
}

// LastScroll returns when the last scroll was triggered.
func (a *AutoScroller) LastScroll() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastScroll
}

// MaybeScroll decides whether the pointer at screen position p should snap the view by one
// column, and issues the scroll when it should.
func (a *AutoScroller) MaybeScroll(p Point) bool {
	a.mu.Lock()
	if a.scroller == nil {
		a.mu.Unlock()
		return false
	}
	t := a.tuning
	if p.Dist(a.origin) < t.MinDragDistance {
		a.mu.Unlock()
		return false
	}
	now := a.now()
	if !a.lastScroll.IsZero() && now.Sub(a.lastScroll) < t.Cooldown {
		a.mu.Unlock()
		return false
	}

	column := math.Round(a.offset / t.ColumnWidth)
	var target float64
	switch {
	case p.X <= t.LeftEdge && a.offset > 0:
		target = max((column-1)*t.ColumnWidth, 0)
	case a.viewportWidth > 0 && p.X >= a.viewportWidth-t.RightEdge:
		target = (column + 1) * t.ColumnWidth
		if limit := a.contentWidth - a.viewportWidth; a.contentWidth > 0 {
			target = min(target, max(limit, 0))
		}
		if target <= a.offset {
			a.mu.Unlock()
			return false
		}
	default:
		a.mu.Unlock()
		return false
	}

	// The cooldown starts now so repeated samples during the animation cannot re-trigger.
	a.lastScroll = now
	if a.pending != nil {
		a.pending.Stop()
	}
	a.pending = a.sched.AfterFunc(t.AnimationDuration, func() { a.settle(target) })
	scroller := a.scroller
	from := a.offset
	a.mu.Unlock()

	a.logger.Debug("auto-scroll triggered", "from", from, "to", target, "pointer_x", p.X)
	scroller.ScrollTo(target, true)
	return true
}

// settle records the landed offset once the scroll animation has finished.
func (a *AutoScroller) settle(target float64) {
	a.mu.Lock()
	if a.scroller == nil {
		a.mu.Unlock()
		return
	}
	a.offset = target
	a.pending = nil
	fn := a.onSettle
	a.mu.Unlock()
	if fn != nil {
		fn(target)
	}
}

// Stop cancels any pending settle timer and detaches the scroller.
func (a *AutoScroller) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
	a.scroller = nil
}
