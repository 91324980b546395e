package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/tackboard/internal/app"
	"github.com/evanschultz/tackboard/internal/domain"
	"github.com/evanschultz/tackboard/internal/drag"
	"github.com/mattn/go-runewidth"
)

// Service represents service data used by this package.
type Service interface {
	EnsureDefaultBoard(context.Context) (domain.Board, error)
	ListBoards(context.Context, bool) ([]domain.Board, error)
	BoardState(context.Context, string) (app.BoardState, error)
	CreateItem(context.Context, app.CreateItemInput) (domain.Item, error)
	MoveItem(context.Context, domain.MoveCommand) (app.MoveResult, error)
	ListChangeEvents(context.Context, string, int) ([]domain.ChangeEvent, error)
}

// inputMode represents input mode data used by this package.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeAddItem
	modeItemInfo
	modeActivity
)

// activityPageSize caps the move history overlay.
const activityPageSize = 50

// pressState tracks one mouse press from button-down until release.
type pressState struct {
	token   int
	itemID  string
	groupID string
	title   string
	origin  drag.Point
	start   drag.Point
	armed   bool
}

// Model represents model data used by this package.
type Model struct {
	svc    Service
	logger *charmLog.Logger

	runtime RuntimeConfig
	bridge  *dragBridge

	ready  bool
	err    error
	status string
	width  int
	height int

	help help.Model
	keys keyMap
	mode inputMode

	boards         []domain.Board
	selectedBoard  int
	pendingBoardID string
	pendingItemID  string
	state          app.BoardState

	selectedColumn int
	selectedItem   int
	offset         int

	press     pressState
	pressSeq  int
	layoutGen uint64

	itemInput textinput.Model
	activity  []domain.ChangeEvent
	markdown  markdownRenderer

	configUpdates <-chan RuntimeConfig
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	boards        []domain.Board
	selectedBoard int
	state         app.BoardState
	err           error
}

// actionMsg carries message data through update handling.
type actionMsg struct {
	status      string
	err         error
	reload      bool
	focusItemID string
}

// armMsg fires when a mouse press has been held for the arm delay.
type armMsg struct {
	token int
}

// zonesMeasuredMsg reports a settled layout measurement for one layout generation.
type zonesMeasuredMsg struct {
	gen uint64
	ok  bool
}

// configReloadedMsg carries message data through update handling.
type configReloadedMsg struct {
	config RuntimeConfig
	ok     bool
}

// activityLoadedMsg carries message data through update handling.
type activityLoadedMsg struct {
	events []domain.ChangeEvent
	err    error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	itemInput := textinput.New()
	itemInput.Prompt = "title: "
	itemInput.Placeholder = "new card title"
	itemInput.CharLimit = 120
	m := Model{
		svc:       svc,
		logger:    charmLog.New(io.Discard),
		runtime:   DefaultRuntimeConfig(),
		status:    "loading...",
		help:      h,
		keys:      newKeyMap(),
		itemInput: itemInput,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.bridge = newDragBridge(m.runtime.Tuning, m.logger)
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadData, waitForConfig(m.configUpdates))
}

// Update handles update.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.setOffset(m.offset)
		return m, m.remeasure()

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.ready = true
		m.boards = msg.boards
		m.selectedBoard = msg.selectedBoard
		m.pendingBoardID = ""
		m.state = msg.state
		m.focusPendingItem()
		m.clampSelections()
		if m.press.itemID != "" {
			if _, _, ok := m.state.FindItem(m.press.itemID); !ok {
				m.bridge.engine.Cancel()
				m.press = pressState{}
			}
		}
		if m.status == "loading..." {
			m.status = "ready"
		}
		m.setOffset(m.offset)
		return m, m.remeasure()

	case actionMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
		} else if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusItemID != "" {
			m.pendingItemID = msg.focusItemID
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case armMsg:
		return m.handleArm(msg)

	case timerFiredMsg:
		m.bridge.sched.fire(msg.id)
		return m, m.afterDrag()

	case zonesMeasuredMsg:
		if msg.ok && msg.gen == m.layoutGen {
			m.syncZones()
		}
		return m, nil

	case configReloadedMsg:
		if !msg.ok {
			return m, nil
		}
		m.applyRuntimeConfig(msg.config)
		m.status = "config reloaded"
		return m, tea.Batch(m.remeasure(), waitForConfig(m.configUpdates))

	case activityLoadedMsg:
		if msg.err != nil {
			m.status = "move history unavailable: " + msg.err.Error()
			return m, nil
		}
		m.activity = msg.events
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		if m.mode == modeAddItem {
			var cmd tea.Cmd
			m.itemInput, cmd = m.itemInput.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

// loadData loads required data for the current operation.
func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	boards, err := m.svc.ListBoards(ctx, false)
	if err != nil {
		return loadedMsg{err: err}
	}
	if len(boards) == 0 {
		board, err := m.svc.EnsureDefaultBoard(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		boards = []domain.Board{board}
	}

	idx := clamp(m.selectedBoard, 0, len(boards)-1)
	if pending := strings.TrimSpace(m.pendingBoardID); pending != "" {
		for i, board := range boards {
			if board.ID == pending {
				idx = i
				break
			}
		}
	}
	state, err := m.svc.BoardState(ctx, boards[idx].ID)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{boards: boards, selectedBoard: idx, state: state}
}

// waitForConfig blocks on the next live config update.
func waitForConfig(ch <-chan RuntimeConfig) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-ch
		return configReloadedMsg{config: cfg, ok: ok}
	}
}

// applyRuntimeConfig swaps drag thresholds without dropping registered zones.
func (m *Model) applyRuntimeConfig(cfg RuntimeConfig) {
	WithRuntimeConfig(cfg)(m)
	m.bridge.engine.SetTuning(m.runtime.Tuning)
	m.setOffset(m.offset)
}

// layout returns the current cell geometry.
func (m Model) layout() boardLayout {
	return newBoardLayout(m.bridge.engine.Tuning(), m.offset, m.width)
}

// setOffset clamps and applies a horizontal board offset and reports it to the drag engine.
func (m *Model) setOffset(offset int) {
	m.offset = clamp(offset, 0, m.layout().maxOffset(len(m.state.Groups)))
	m.bridge.engine.SetScrollOffset(float64(m.offset))
}

// remeasure starts a deferred measurement for a new layout generation.
func (m *Model) remeasure() tea.Cmd {
	m.layoutGen++
	gen := m.layoutGen
	measurer := m.bridge.engine.Measurer()
	bounds := drag.Rect{
		Y:      boardTop,
		Width:  float64(m.layout().contentWidth(len(m.state.Groups))),
		Height: float64(max(0, m.height-boardTop)),
	}
	ready := m.ready
	return func() tea.Msg {
		res := <-measurer.Measure(context.Background(), func() (drag.Rect, bool) {
			return bounds, ready
		})
		return zonesMeasuredMsg{gen: gen, ok: res.OK}
	}
}

// syncZones registers drop zones for the board as currently laid out.
func (m *Model) syncZones() {
	m.bridge.syncZones(m.state, m.layout())
}

// afterDrag folds drag engine side effects into model state and returns follow-up commands.
func (m *Model) afterDrag() tea.Cmd {
	cmds := []tea.Cmd{m.bridge.timerCmds()}
	if offset, ok := m.bridge.takeScroll(); ok {
		m.offset = clamp(offset, 0, m.layout().maxOffset(len(m.state.Groups)))
	}
	if m.bridge.stale() {
		m.syncZones()
	}
	for _, cmd := range m.bridge.takeConfirmed() {
		m.status = "dropped into " + m.groupTitle(cmd.TargetGroupID)
		m.pendingItemID = cmd.ItemID
	}
	for _, cmd := range m.bridge.takeCommits() {
		cmds = append(cmds, m.moveItemCmd(cmd))
	}
	return tea.Batch(cmds...)
}

// handleNormalModeKey handles normal mode key.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.bridge.close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.cancel):
		if m.press.itemID != "" {
			m.bridge.engine.Cancel()
			m.press = pressState{}
			m.status = "drag cancelled"
			return m, m.afterDrag()
		}
		if m.help.ShowAll {
			m.help.ShowAll = false
		}
		return m, nil
	}
	if m.press.armed {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.moveLeft):
		m.selectColumn(m.selectedColumn - 1)
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		m.selectColumn(m.selectedColumn + 1)
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.selectedItem--
		m.clampSelections()
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.selectedItem++
		m.clampSelections()
		return m, nil
	case key.Matches(msg, m.keys.moveItemLeft):
		return m.keyboardMove(-1, 0)
	case key.Matches(msg, m.keys.moveItemRight):
		return m.keyboardMove(1, 0)
	case key.Matches(msg, m.keys.moveItemUp):
		return m.keyboardMove(0, -1)
	case key.Matches(msg, m.keys.moveItemDown):
		return m.keyboardMove(0, 1)
	case key.Matches(msg, m.keys.addItem):
		if len(m.state.Groups) == 0 {
			m.status = "board has no columns"
			return m, nil
		}
		m.mode = modeAddItem
		m.itemInput.Reset()
		return m, m.itemInput.Focus()
	case key.Matches(msg, m.keys.itemInfo):
		if _, ok := m.selectedStateItem(); !ok {
			m.status = "no card selected"
			return m, nil
		}
		m.mode = modeItemInfo
		return m, nil
	case key.Matches(msg, m.keys.activity):
		m.mode = modeActivity
		m.activity = nil
		return m, m.loadActivityCmd()
	case key.Matches(msg, m.keys.nextBoard):
		if len(m.boards) < 2 {
			m.status = "only one board"
			return m, nil
		}
		m.selectedBoard = (m.selectedBoard + 1) % len(m.boards)
		m.pendingBoardID = m.boards[m.selectedBoard].ID
		m.selectedColumn, m.selectedItem = 0, 0
		m.setOffset(0)
		return m, m.loadData
	default:
		return m, nil
	}
}

// handleInputModeKey handles input mode key.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeAddItem {
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			m.itemInput.Blur()
			m.status = "cancelled"
			return m, nil
		case "enter":
			title := strings.TrimSpace(m.itemInput.Value())
			if title == "" {
				m.status = "title required"
				return m, nil
			}
			group := m.state.Groups[clamp(m.selectedColumn, 0, len(m.state.Groups)-1)]
			m.mode = modeNone
			m.itemInput.Blur()
			return m, m.createItemCmd(group.ID, title)
		}
		var cmd tea.Cmd
		m.itemInput, cmd = m.itemInput.Update(msg)
		return m, cmd
	}

	switch {
	case msg.String() == "esc", key.Matches(msg, m.keys.quit):
		m.mode = modeNone
	case m.mode == modeItemInfo && key.Matches(msg, m.keys.itemInfo):
		m.mode = modeNone
	case m.mode == modeActivity && key.Matches(msg, m.keys.activity):
		m.mode = modeNone
	}
	return m, nil
}

// selectColumn moves the column cursor and scrolls it into view.
func (m *Model) selectColumn(col int) {
	if len(m.state.Groups) == 0 {
		return
	}
	m.selectedColumn = clamp(col, 0, len(m.state.Groups)-1)
	m.clampSelections()
	m.setOffset(m.layout().revealOffset(m.selectedColumn, len(m.state.Groups)))
}

// keyboardMove issues the move a drop at the neighbouring slot would produce.
func (m Model) keyboardMove(dCol, dRow int) (tea.Model, tea.Cmd) {
	item, ok := m.selectedStateItem()
	if !ok {
		m.status = "no card selected"
		return m, nil
	}
	col, idx := m.selectedColumn, m.selectedItem
	group := m.state.Groups[col]

	var cmd domain.MoveCommand
	switch {
	case dCol != 0:
		target := col + dCol
		if target < 0 || target >= len(m.state.Groups) {
			return m, nil
		}
		order := min(idx, len(m.state.Groups[target].Items))
		cmd = domain.MoveCommand{ItemID: item.ID, TargetGroupID: m.state.Groups[target].ID, TargetOrder: order}
		m.selectColumn(target)
	case dRow < 0:
		if idx == 0 {
			return m, nil
		}
		cmd = domain.MoveCommand{ItemID: item.ID, TargetGroupID: group.ID, TargetOrder: idx - 1}
	case dRow > 0:
		if idx >= len(group.Items)-1 {
			return m, nil
		}
		// Slots address the pre-move sequence, so moving down one skips past the neighbour.
		cmd = domain.MoveCommand{ItemID: item.ID, TargetGroupID: group.ID, TargetOrder: idx + 2}
	default:
		return m, nil
	}
	m.pendingItemID = item.ID
	m.status = "moving " + item.Title
	return m, m.moveItemCmd(cmd)
}

// moveItemCmd persists one move command.
func (m Model) moveItemCmd(cmd domain.MoveCommand) tea.Cmd {
	svc := m.svc
	logger := m.logger
	return func() tea.Msg {
		res, err := svc.MoveItem(context.Background(), cmd)
		if err != nil {
			logger.Warn("move failed", "item_id", cmd.ItemID, "group_id", cmd.TargetGroupID, "order", cmd.TargetOrder, "err", err)
			return actionMsg{err: err, reload: true}
		}
		if !res.Applied {
			return actionMsg{status: "card no longer exists", reload: true}
		}
		return actionMsg{status: "moved " + res.Item.Title, reload: true, focusItemID: res.Item.ID}
	}
}

// createItemCmd creates one card at the end of groupID.
func (m Model) createItemCmd(groupID, title string) tea.Cmd {
	svc := m.svc
	boardID := m.state.Board.ID
	return func() tea.Msg {
		item, err := svc.CreateItem(context.Background(), app.CreateItemInput{
			BoardID: boardID,
			GroupID: groupID,
			Title:   title,
		})
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "created " + item.Title, reload: true, focusItemID: item.ID}
	}
}

// loadActivityCmd loads move history for the current board.
func (m Model) loadActivityCmd() tea.Cmd {
	svc := m.svc
	boardID := m.state.Board.ID
	return func() tea.Msg {
		events, err := svc.ListChangeEvents(context.Background(), boardID, activityPageSize)
		return activityLoadedMsg{events: events, err: err}
	}
}

// handleMouseClick starts a long-press on the card under the pointer.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone || m.press.itemID != "" {
		return m, nil
	}
	if msg.Button != tea.MouseLeft {
		return m, nil
	}
	layout := m.layout()
	if col, ok := layout.columnAt(msg.X, len(m.state.Groups)); ok {
		m.selectedColumn = col
	}
	col, idx, ok := layout.cardAt(m.state, msg.X, msg.Y)
	if !ok {
		m.clampSelections()
		return m, nil
	}
	m.selectedItem = idx
	group := m.state.Groups[col]
	item := group.Items[idx]

	m.pressSeq++
	token := m.pressSeq
	m.press = pressState{
		token:   token,
		itemID:  item.ID,
		groupID: group.ID,
		title:   item.Title,
		origin:  layout.cardOrigin(col, idx),
		start:   drag.Point{X: float64(msg.X), Y: float64(msg.Y)},
	}
	return m, tea.Tick(m.runtime.ArmDelay, func(time.Time) tea.Msg {
		return armMsg{token: token}
	})
}

// handleArm arms the drag once a press has been held long enough.
func (m Model) handleArm(msg armMsg) (tea.Model, tea.Cmd) {
	if m.press.itemID == "" || m.press.armed || m.press.token != msg.token {
		return m, nil
	}
	if err := m.bridge.engine.StartDrag(m.press.itemID, m.press.groupID, m.press.origin); err != nil {
		m.status = "drag unavailable: " + err.Error()
		m.press = pressState{}
		return m, nil
	}
	m.press.armed = true
	m.status = "dragging " + m.press.title
	return m, m.afterDrag()
}

// handleMouseMotion feeds pointer translation into an armed drag.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.press.itemID == "" {
		return m, nil
	}
	point := drag.Point{X: float64(msg.X), Y: float64(msg.Y)}
	if !m.press.armed {
		if point != m.press.start {
			m.press = pressState{}
		}
		return m, nil
	}
	m.bridge.engine.UpdatePosition(drag.Point{X: point.X - m.press.start.X, Y: point.Y - m.press.start.Y})
	return m, m.afterDrag()
}

// handleMouseRelease drops an armed drag; a short press only selects.
func (m Model) handleMouseRelease(tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.press.itemID == "" {
		return m, nil
	}
	armed := m.press.armed
	m.press = pressState{}
	if !armed {
		return m, nil
	}
	outcome, err := m.bridge.engine.EndDrag(context.Background())
	switch {
	case err != nil:
		m.status = "error: " + err.Error()
	case !outcome.Committed:
		m.status = "drag cancelled"
	}
	return m, m.afterDrag()
}

// handleMouseWheel moves the card cursor or scrolls the board sideways.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.press.armed {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.selectedItem--
		m.clampSelections()
	case tea.MouseWheelDown:
		m.selectedItem++
		m.clampSelections()
	case tea.MouseWheelLeft:
		m.setOffset(m.offset - m.layout().stride)
	case tea.MouseWheelRight:
		m.setOffset(m.offset + m.layout().stride)
	}
	return m, nil
}

// focusPendingItem moves the cursor onto a freshly moved or created card.
func (m *Model) focusPendingItem() {
	if m.pendingItemID == "" {
		return
	}
	for col, group := range m.state.Groups {
		for idx, item := range group.Items {
			if item.ID == m.pendingItemID {
				m.selectedColumn, m.selectedItem = col, idx
			}
		}
	}
	m.pendingItemID = ""
}

// clampSelections clamps selections.
func (m *Model) clampSelections() {
	if len(m.state.Groups) == 0 {
		m.selectedColumn = 0
		m.selectedItem = 0
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.state.Groups)-1)
	items := m.state.Groups[m.selectedColumn].Items
	if len(items) == 0 {
		m.selectedItem = 0
		return
	}
	m.selectedItem = clamp(m.selectedItem, 0, len(items)-1)
}

// selectedStateItem returns the card under the cursor.
func (m Model) selectedStateItem() (app.StateItem, bool) {
	if m.selectedColumn < 0 || m.selectedColumn >= len(m.state.Groups) {
		return app.StateItem{}, false
	}
	items := m.state.Groups[m.selectedColumn].Items
	if m.selectedItem < 0 || m.selectedItem >= len(items) {
		return app.StateItem{}, false
	}
	return items[m.selectedItem], true
}

// groupTitle returns a display title for groupID.
func (m Model) groupTitle(groupID string) string {
	if group, ok := m.state.Group(groupID); ok {
		return group.Title
	}
	return groupID
}

// modeLabel handles mode label.
func (m Model) modeLabel() string {
	if m.press.armed {
		return "drag"
	}
	switch m.mode {
	case modeAddItem:
		return "new card"
	case modeItemInfo:
		return "info"
	case modeActivity:
		return "history"
	default:
		return "board"
	}
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("tack") + "  " + m.state.Board.Name
	header += statusStyle.Render("  [" + m.modeLabel() + "]")
	if len(m.boards) > 1 {
		header += statusStyle.Render(fmt.Sprintf("  board %d/%d", m.selectedBoard+1, len(m.boards)))
	}

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	layout := m.layout()
	snap := m.bridge.snap
	boardHeight := 0
	if m.height > 0 {
		boardHeight = max(0, m.height-boardTop-1-lipgloss.Height(helpLine))
	}
	board := renderBoard(m.state, layout, boardView{
		selectedColumn: m.selectedColumn,
		selectedItem:   m.selectedItem,
		snapshot:       snap,
		height:         boardHeight,
	})

	sections := []string{header, "", board}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	} else {
		sections = append(sections, "")
	}
	content := strings.Join(sections, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine

	height := lipgloss.Height(fullContent)
	if m.height > 0 {
		height = m.height
	}
	fullContent = renderDragOverlay(fullContent, snap, m.state, layout, max(1, m.width), max(1, height))
	if overlay := m.renderModeOverlay(max(24, m.width-8)); overlay != "" {
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, height))
	}

	view := tea.NewView(fullContent)
	view.MouseMode = tea.MouseModeCellMotion
	view.AltScreen = true
	return view
}

// renderModeOverlay renders the modal for the active input mode.
func (m Model) renderModeOverlay(width int) string {
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(min(width, 72))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	if m.help.ShowAll {
		helpBubble := m.help
		helpBubble.ShowAll = true
		helpBubble.SetWidth(min(width, 72) - 4)
		return boxStyle.Render(titleStyle.Render("Keys") + "\n\n" + helpBubble.View(m.keys) + "\n\n" + hintStyle.Render("drag: hold a card, move, release • esc cancels"))
	}

	switch m.mode {
	case modeAddItem:
		column := m.groupTitle(m.state.Groups[clamp(m.selectedColumn, 0, len(m.state.Groups)-1)].ID)
		return boxStyle.Render(titleStyle.Render("New card in "+column) + "\n\n" + m.itemInput.View() + "\n\n" + hintStyle.Render("enter save • esc cancel"))
	case modeItemInfo:
		item, ok := m.selectedStateItem()
		if !ok {
			return ""
		}
		body := m.markdown.render(itemMarkdown(item, m.groupTitle(item.GroupID)), min(width, 72)-4)
		return boxStyle.Render(body + "\n\n" + hintStyle.Render("esc close"))
	case modeActivity:
		return boxStyle.Render(titleStyle.Render("Move history") + "\n\n" + m.renderActivity(min(width, 72)-4) + "\n\n" + hintStyle.Render("esc close"))
	default:
		return ""
	}
}

// renderActivity renders move history rows.
func (m Model) renderActivity(width int) string {
	if m.activity == nil {
		return "loading..."
	}
	if len(m.activity) == 0 {
		return "(no moves yet)"
	}
	lines := make([]string, 0, len(m.activity))
	for _, event := range m.activity {
		title := event.ItemID
		if item, _, ok := m.state.FindItem(event.ItemID); ok {
			title = item.Title
		}
		line := fmt.Sprintf("%s  %-6s %s", event.OccurredAt.Local().Format("15:04:05"), event.Operation, title)
		if event.Operation == domain.ChangeOperationMove {
			line += fmt.Sprintf("  %s#%s → %s#%s",
				m.groupTitle(event.Metadata["from_group_id"]), event.Metadata["from_order"],
				m.groupTitle(event.Metadata["to_group_id"]), event.Metadata["to_order"])
		}
		lines = append(lines, truncateCells(line, width))
	}
	return strings.Join(lines, "\n")
}

// itemMarkdown renders card details as markdown.
func itemMarkdown(item app.StateItem, groupTitle string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", item.Title)
	if item.Description != "" {
		b.WriteString(item.Description + "\n\n")
	}
	fmt.Fprintf(&b, "- **column**: %s\n- **position**: %d\n", groupTitle, item.Order+1)
	for _, name := range sortedKeys(item.Fields) {
		fmt.Fprintf(&b, "- **%s**: %s\n", name, item.Fields[name])
	}
	fmt.Fprintf(&b, "- **updated**: %s\n", item.UpdatedAt.Local().Format(time.DateTime))
	return b.String()
}

// clamp handles clamp.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines pads or trims content to exactly maxLines rows.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// truncateCells cuts s to at most width terminal cells, ending in an ellipsis when it cuts.
func truncateCells(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if width == 1 {
		return runewidth.Truncate(s, 1, "")
	}
	return runewidth.Truncate(s, width, "…")
}
