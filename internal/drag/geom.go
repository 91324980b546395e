package drag

import "math"

// Point is a position in layout units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the rectangle center.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Pad grows r by margin on every side.
func (r Rect) Pad(margin float64) Rect {
	return Rect{X: r.X - margin, Y: r.Y - margin, Width: r.Width + 2*margin, Height: r.Height + 2*margin}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Absolute converts a viewport point to content coordinates. Only x scrolls.
func Absolute(screen Point, scrollOffset float64) Point {
	return Point{X: screen.X + scrollOffset, Y: screen.Y}
}

// Screen converts a content point back to viewport coordinates.
func Screen(abs Point, scrollOffset float64) Point {
	return Point{X: abs.X - scrollOffset, Y: abs.Y}
}

// CardCenter returns the visual center of a card whose top-left corner is at origin.
// The center, not the grab point, is what gets hit-tested.
func CardCenter(origin Point, t Tuning) Point {
	return Point{X: origin.X + t.CardWidth/2, Y: origin.Y + t.CardHalfHeight}
}
