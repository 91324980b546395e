package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/evanschultz/tackboard/internal/app"
	"github.com/evanschultz/tackboard/internal/drag"
	"github.com/mattn/go-runewidth"
)

// boardView holds per-frame render inputs for the board.
type boardView struct {
	selectedColumn int
	selectedItem   int
	snapshot       drag.Snapshot
	height         int
}

// renderBoard renders every column at its absolute x and crops the result to the viewport.
func renderBoard(state app.BoardState, layout boardLayout, view boardView) string {
	accent := lipgloss.Color("62")
	hover := lipgloss.Color("212")
	dim := lipgloss.Color("239")
	muted := lipgloss.Color("241")

	if len(state.Groups) == 0 {
		return lipgloss.NewStyle().Foreground(muted).Render("(board has no columns)")
	}

	columns := make([][]string, 0, len(state.Groups))
	rows := 0
	for col, group := range state.Groups {
		hovered := view.snapshot.HoveredGroupID == group.ID
		selected := col == view.selectedColumn

		headStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
		ruleStyle := lipgloss.NewStyle().Foreground(dim)
		switch {
		case hovered:
			headStyle = headStyle.Foreground(hover)
			ruleStyle = ruleStyle.Foreground(hover)
		case selected:
			headStyle = headStyle.Foreground(accent)
			ruleStyle = ruleStyle.Foreground(accent)
		}

		title := fmt.Sprintf("%s (%d)", group.Title, len(group.Items))
		lines := []string{
			padCell(headStyle.Render(runewidth.Truncate(title, layout.stride-1, "…")), layout.stride),
			padCell(ruleStyle.Render(strings.Repeat("─", layout.stride-1)), layout.stride),
		}
		if len(group.Items) == 0 {
			placeholder := lipgloss.NewStyle().Foreground(muted).Render(runewidth.Truncate("(empty)", layout.cardWidth, "…"))
			lines = append(lines, "", padCell(strings.Repeat(" ", cardGutter)+placeholder, layout.stride), "")
		}
		for idx, item := range group.Items {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
			switch {
			case item.ID == view.snapshot.DraggingItemID:
				style = style.Foreground(dim).Faint(true)
			case selected && idx == view.selectedItem:
				style = style.Foreground(hover).Bold(true)
			}
			for _, line := range renderCard(item.Title, layout.cardWidth, style) {
				lines = append(lines, padCell(strings.Repeat(" ", cardGutter)+line, layout.stride))
			}
		}
		rows = max(rows, len(lines))
		columns = append(columns, lines)
	}
	if view.height > 0 {
		rows = view.height
	}

	blank := strings.Repeat(" ", layout.stride)
	out := make([]string, 0, rows)
	for row := range rows {
		var b strings.Builder
		for _, lines := range columns {
			if row < len(lines) && lines[row] != "" {
				b.WriteString(lines[row])
			} else {
				b.WriteString(blank)
			}
		}
		line := b.String()
		if layout.viewport > 0 {
			line = ansi.Cut(line, layout.offset, layout.offset+layout.viewport)
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// renderCard renders a bordered one-line card exactly width cells wide.
func renderCard(title string, width int, style lipgloss.Style) []string {
	border := lipgloss.RoundedBorder()
	inner := max(2, width-2)
	text := runewidth.FillRight(runewidth.Truncate(title, inner-1, "…"), inner-1)
	return []string{
		style.Render(border.TopLeft + strings.Repeat(border.Top, inner) + border.TopRight),
		style.Render(border.Left + " " + text + border.Right),
		style.Render(border.BottomLeft + strings.Repeat(border.Bottom, inner) + border.BottomRight),
	}
}

// padCell right-pads a styled string to width cells.
func padCell(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// sortedKeys returns map keys in lexical order.
func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
