package drag

import "time"

// Tuning holds the thresholds that shape drag UX. Units are layout units (cells in the TUI).
type Tuning struct {
	// Padding grows every drop zone on all sides before containment testing.
	Padding float64
	// MinDragDistance gates auto-scroll until the card has travelled this far from its origin.
	MinDragDistance float64
	// Cooldown is the minimum interval between two auto-scroll triggers.
	Cooldown time.Duration
	// LeftEdge and RightEdge are the viewport edge bands that trigger auto-scroll.
	LeftEdge  float64
	RightEdge float64
	// ColumnWidth is the snap increment for auto-scroll.
	ColumnWidth float64
	// CardWidth and CardHalfHeight locate the dragged card's center relative to its origin.
	CardWidth      float64
	CardHalfHeight float64
	// AnimationDuration is how long an animated scroll takes to land.
	AnimationDuration time.Duration
	// MeasureDelay approximates layout settling before zones are measured. It is not a guarantee.
	MeasureDelay time.Duration
	// NotifyHz caps snapshot notifications per second; the last sample is always delivered.
	NotifyHz float64
}

// DefaultTuning returns default drag thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		Padding:           50,
		MinDragDistance:   50,
		Cooldown:          500 * time.Millisecond,
		LeftEdge:          40,
		RightEdge:         200,
		ColumnWidth:       336,
		CardWidth:         300,
		CardHalfHeight:    40,
		AnimationDuration: 300 * time.Millisecond,
		MeasureDelay:      100 * time.Millisecond,
		NotifyHz:          60,
	}
}

// withDefaults fills unset values from DefaultTuning.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t == (Tuning{}) {
		return d
	}
	if t.Padding < 0 {
		t.Padding = 0
	}
	if t.MinDragDistance < 0 {
		t.MinDragDistance = 0
	}
	if t.Cooldown < 0 {
		t.Cooldown = 0
	}
	if t.LeftEdge <= 0 {
		t.LeftEdge = d.LeftEdge
	}
	if t.RightEdge <= 0 {
		t.RightEdge = d.RightEdge
	}
	if t.ColumnWidth <= 0 {
		t.ColumnWidth = d.ColumnWidth
	}
	if t.CardWidth < 0 {
		t.CardWidth = 0
	}
	if t.CardHalfHeight < 0 {
		t.CardHalfHeight = 0
	}
	if t.AnimationDuration < 0 {
		t.AnimationDuration = 0
	}
	if t.MeasureDelay < 0 {
		t.MeasureDelay = 0
	}
	return t
}
