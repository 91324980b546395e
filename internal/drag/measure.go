package drag

import (
	"context"
	"time"
)

// Measurement is the settled result of one deferred layout measurement.
type Measurement struct {
	Bounds Rect
	OK     bool
}

// Measurer defers layout measurement by a fixed settle delay. The delay approximates layout
// completion on slow hosts; it is configurable and not a correctness guarantee.
type Measurer struct {
	delay time.Duration
	after func(time.Duration) <-chan time.Time
}

// NewMeasurer constructs a measurer with the given settle delay.
func NewMeasurer(delay time.Duration) *Measurer {
	return &Measurer{delay: max(delay, 0), after: time.After}
}

// Delay returns the configured settle delay.
func (m *Measurer) Delay() time.Duration {
	return m.delay
}

// Measure resolves measure() once the settle delay has elapsed. The returned channel yields
// exactly one value and is then closed; cancellation yields OK=false without measuring.
func (m *Measurer) Measure(ctx context.Context, measure func() (Rect, bool)) <-chan Measurement {
	out := make(chan Measurement, 1)
	if m.delay == 0 {
		out <- runMeasure(ctx, measure)
		close(out)
		return out
	}
	wait := m.after(m.delay)
	go func() {
		defer close(out)
		select {
		case <-ctx.Done():
			out <- Measurement{}
		case <-wait:
			out <- runMeasure(ctx, measure)
		}
	}()
	return out
}

// runMeasure evaluates measure unless ctx is already done.
func runMeasure(ctx context.Context, measure func() (Rect, bool)) Measurement {
	if ctx.Err() != nil || measure == nil {
		return Measurement{}
	}
	bounds, ok := measure()
	return Measurement{Bounds: bounds, OK: ok}
}
