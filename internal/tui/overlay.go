package tui

import (
	"math"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/evanschultz/tackboard/internal/app"
	"github.com/evanschultz/tackboard/internal/drag"
)

// renderDragOverlay draws the floating card at the session position and marks the insertion
// slot of the current target. It reads nothing but the drag snapshot and the board it is over.
func renderDragOverlay(base string, snap drag.Snapshot, state app.BoardState, layout boardLayout, width, height int) string {
	if !snap.Active() || width <= 0 || height <= 0 {
		return base
	}
	title := snap.DraggingItemID
	if item, _, ok := state.FindItem(snap.DraggingItemID); ok {
		title = item.Title
	}

	layers := []*lipgloss.Layer{lipgloss.NewLayer(fitLines(base, height)).Z(0)}
	if x, y, ok := slotMarkerAt(snap, state, layout, width, height); ok {
		marker := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).
			Render("▸" + strings.Repeat("━", max(0, layout.cardWidth-1)))
		layers = append(layers, lipgloss.NewLayer(marker).X(x).Y(y).Z(5))
	}

	floating := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	card := strings.Join(renderCard(title, layout.cardWidth, floating), "\n")
	x := clamp(int(math.Round(snap.Position.X)), 0, max(0, width-layout.cardWidth))
	y := clamp(int(math.Round(snap.Position.Y)), 0, max(0, height-cardRows))
	layers = append(layers, lipgloss.NewLayer(card).X(x).Y(y).Z(10))
	return composeLayers(width, height, layers...)
}

// slotMarkerAt returns the screen cell of the target slot marker when it is visible.
func slotMarkerAt(snap drag.Snapshot, state app.BoardState, layout boardLayout, width, height int) (int, int, bool) {
	if snap.Target == nil {
		return 0, 0, false
	}
	col := slices.IndexFunc(state.Groups, func(g app.StateGroup) bool { return g.ID == snap.Target.GroupID })
	if col < 0 {
		return 0, 0, false
	}
	origin := layout.cardOrigin(col, snap.Target.Position)
	x, y := int(origin.X), int(origin.Y)
	if x < 0 || x+layout.cardWidth > width || y < 0 || y >= height {
		return 0, 0, false
	}
	return x, y, true
}

// overlayOnContent centers overlay above base, leaving the base visible around it.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	x := max(0, (width-lipgloss.Width(overlay))/2)
	y := max(0, (height-lipgloss.Height(overlay))/2)
	return composeLayers(width, height,
		lipgloss.NewLayer(fitLines(base, height)).Z(0),
		lipgloss.NewLayer(overlay).X(x).Y(y).Z(10),
	)
}

// composeLayers paints layers at their own offsets in z order on a width x height canvas.
// Canvas.Compose ignores layer offsets; the Compositor applies them.
func composeLayers(width, height int, layers ...*lipgloss.Layer) string {
	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewCompositor(layers...))
	return canvas.Render()
}
