package drag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAutoScroller(t *testing.T) (*AutoScroller, *scrollRecorder, *fakeScheduler) {
	t.Helper()
	clock := newFakeClock()
	sched := &fakeScheduler{clock: clock}
	rec := &scrollRecorder{}
	a := NewAutoScroller(DefaultTuning(), sched, clock.Now, nil)
	a.Attach(rec)
	a.SetViewport(1000, 3*336+1000)
	a.Begin(Point{X: 500, Y: 300})
	return a, rec, sched
}

// TestAutoScrollLeftEdgeSnapsToPreviousColumn covers the one-column-in left edge scenario.
func TestAutoScrollLeftEdgeSnapsToPreviousColumn(t *testing.T) {
	a, rec, sched := newTestAutoScroller(t)
	a.SetOffset(336)

	require.True(t, a.MaybeScroll(Point{X: 10, Y: 300}))
	assert.Equal(t, []float64{0}, rec.Calls())
	assert.Equal(t, sched.clock.Now(), a.LastScroll(), "cooldown stamped immediately")
	assert.Equal(t, 336.0, a.Offset(), "offset waits for the animation to land")

	sched.Advance(299 * time.Millisecond)
	assert.Equal(t, 336.0, a.Offset())
	sched.Advance(time.Millisecond)
	assert.Equal(t, 0.0, a.Offset())
}

// TestAutoScrollCooldownAllowsOneScroll verifies two triggers inside the cooldown produce one scroll.
func TestAutoScrollCooldownAllowsOneScroll(t *testing.T) {
	a, rec, sched := newTestAutoScroller(t)

	require.True(t, a.MaybeScroll(Point{X: 950, Y: 300}))
	sched.Advance(400 * time.Millisecond)
	assert.False(t, a.MaybeScroll(Point{X: 960, Y: 300}))
	assert.Equal(t, []float64{336}, rec.Calls())

	sched.Advance(100 * time.Millisecond)
	require.True(t, a.MaybeScroll(Point{X: 960, Y: 300}))
	assert.Equal(t, []float64{336, 672}, rec.Calls())
}

// TestAutoScrollGates verifies the no-op paths.
func TestAutoScrollGates(t *testing.T) {
	tests := []struct {
		name   string
		offset float64
		point  Point
	}{
		{name: "short drag", offset: 336, point: Point{X: 480, Y: 300}},
		{name: "left edge at start", offset: 0, point: Point{X: 5, Y: 300}},
		{name: "middle of viewport", offset: 336, point: Point{X: 400, Y: 500}},
		{name: "right edge at max offset", offset: 3 * 336, point: Point{X: 990, Y: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, rec, _ := newTestAutoScroller(t)
			a.SetOffset(tt.offset)
			assert.False(t, a.MaybeScroll(tt.point))
			assert.Empty(t, rec.Calls())
		})
	}
}

// TestAutoScrollRightEdgeClampsToContent verifies the next-column target never passes the max offset.
func TestAutoScrollRightEdgeClampsToContent(t *testing.T) {
	a, rec, _ := newTestAutoScroller(t)
	a.SetViewport(1000, 1200)
	require.True(t, a.MaybeScroll(Point{X: 900, Y: 300}))
	assert.Equal(t, []float64{200}, rec.Calls())
}

// TestAutoScrollDetachedIsNoop verifies missing scroller handling and Stop.
func TestAutoScrollDetachedIsNoop(t *testing.T) {
	a, rec, sched := newTestAutoScroller(t)
	a.SetOffset(336)
	require.True(t, a.MaybeScroll(Point{X: 0, Y: 300}))
	require.Equal(t, 1, sched.Pending())

	a.Stop()
	assert.Equal(t, 0, sched.Pending())
	sched.Advance(time.Second)
	assert.Equal(t, 336.0, a.Offset(), "stopped scroller never settles")
	assert.False(t, a.MaybeScroll(Point{X: 0, Y: 300}))
	assert.Len(t, rec.Calls(), 1)
}
