package tui

import (
	"math"

	"github.com/evanschultz/tackboard/internal/app"
	"github.com/evanschultz/tackboard/internal/drag"
)

const (
	// boardTop is the first screen row of the board area (header line plus one blank line).
	boardTop = 2
	// columnHeaderRows covers the column title and its rule.
	columnHeaderRows = 2
	// cardRows is the rendered height of one card.
	cardRows = 3
	// cardGutter is the left inset of cards inside a column.
	cardGutter = 1
)

// boardLayout maps board state onto terminal cells. Column j starts at absolute x j*stride.
type boardLayout struct {
	stride    int
	cardWidth int
	offset    int
	viewport  int
}

// newBoardLayout derives cell geometry from drag tuning.
func newBoardLayout(t drag.Tuning, offset, viewport int) boardLayout {
	stride := max(8, int(math.Round(t.ColumnWidth)))
	card := int(math.Round(t.CardWidth))
	if card <= 0 || card > stride-cardGutter-1 {
		card = stride - cardGutter - 1
	}
	return boardLayout{stride: stride, cardWidth: max(4, card), offset: max(0, offset), viewport: max(0, viewport)}
}

// contentWidth returns the unclipped board width for n columns.
func (l boardLayout) contentWidth(columns int) int {
	return columns * l.stride
}

// maxOffset returns the largest useful scroll offset for n columns.
func (l boardLayout) maxOffset(columns int) int {
	return max(0, l.contentWidth(columns)-l.viewport)
}

// columnX returns the screen x of column idx.
func (l boardLayout) columnX(idx int) int {
	return idx*l.stride - l.offset
}

// cardY returns the screen y of card slot idx.
func (l boardLayout) cardY(idx int) int {
	return boardTop + columnHeaderRows + idx*cardRows
}

// cardOrigin returns the screen top-left of card idx in column col.
func (l boardLayout) cardOrigin(col, idx int) drag.Point {
	return drag.Point{X: float64(l.columnX(col) + cardGutter), Y: float64(l.cardY(idx))}
}

// slotRects returns one screen rect per insertion slot of a column holding n cards.
// Slot n covers the placeholder row after the last card.
func (l boardLayout) slotRects(col, n int) []drag.Rect {
	rects := make([]drag.Rect, 0, n+1)
	for idx := 0; idx <= n; idx++ {
		origin := l.cardOrigin(col, idx)
		rects = append(rects, drag.Rect{X: origin.X, Y: origin.Y, Width: float64(l.cardWidth), Height: cardRows})
	}
	return rects
}

// columnAt returns the column index under screen x.
func (l boardLayout) columnAt(x, columns int) (int, bool) {
	abs := x + l.offset
	if abs < 0 || columns == 0 {
		return 0, false
	}
	col := abs / l.stride
	if col >= columns {
		return 0, false
	}
	return col, true
}

// cardAt resolves the card under screen cell (x, y).
func (l boardLayout) cardAt(state app.BoardState, x, y int) (col, idx int, ok bool) {
	col, ok = l.columnAt(x, len(state.Groups))
	if !ok {
		return 0, 0, false
	}
	left := l.columnX(col) + cardGutter
	if x < left || x >= left+l.cardWidth {
		return col, 0, false
	}
	row := y - l.cardY(0)
	if row < 0 {
		return col, 0, false
	}
	idx = row / cardRows
	if idx >= len(state.Groups[col].Items) {
		return col, 0, false
	}
	return col, idx, true
}

// revealOffset returns the smallest offset change that shows column col in full.
func (l boardLayout) revealOffset(col, columns int) int {
	left := col * l.stride
	right := left + l.stride
	offset := l.offset
	switch {
	case left < offset:
		offset = left
	case l.viewport > 0 && right > offset+l.viewport:
		offset = right - l.viewport
	}
	return clamp(offset, 0, l.maxOffset(columns))
}
