package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/imx/internal/mirror"
	"github.com/desertthunder/imx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	ConfirmView
	ResultView
)

// confirmPreviewLimit caps how many names the confirmation screen lists.
const confirmPreviewLimit = 10

// NewSnapshotChannel creates the buffered channel that carries listing
// snapshots from the mirror view into the TUI.
func NewSnapshotChannel() chan mirror.Snapshot {
	return make(chan mirror.Snapshot, 8)
}

// Renderer adapts a snapshot channel into a [mirror.RenderFunc]. Delivery is
// non-blocking; a dropped snapshot is superseded by the next one.
func Renderer(ch chan mirror.Snapshot) mirror.RenderFunc {
	return func(snap mirror.Snapshot) {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	listing   *mirror.View
	feed      *tasks.ImageFeed
	snapshots chan mirror.Snapshot
	snap      mirror.Snapshot
	imageList list.Model
	width     int
	height    int
	resultErr error
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies. The
// snapshots channel must be the one wired into the listing view's renderer.
func NewModel(ctx context.Context, listing *mirror.View, feed *tasks.ImageFeed, snapshots chan mirror.Snapshot) *Model {
	imageList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	imageList.Title = "Fleet Images"
	imageList.SetShowStatusBar(false)

	return &Model{
		ctx:       ctx,
		view:      ListView,
		listing:   listing,
		feed:      feed,
		snapshots: snapshots,
		imageList: imageList,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts the background feed and begins consuming snapshots.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.runFeed(), m.waitForSnapshot())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.imageList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case snapshotMsg:
		m.applySnapshot(mirror.Snapshot(msg))
		return m, m.waitForSnapshot()

	case submitDoneMsg:
		m.resultErr = msg.err
		m.view = ResultView
		return m, nil

	case refreshDoneMsg:
		// Refresh failures already surface on the snapshot's Err field.
		return m, nil

	case feedStoppedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.imageList, cmd = m.imageList.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ListView:
		return m.renderList()
	case ConfirmView:
		return m.renderConfirm()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.listing.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.imageList.SelectedItem().(imageItem); ok {
			m.listing.ToggleSelect(item.image.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.delete):
		if m.listing.RequestDelete() {
			m.view = ConfirmView
		}
		return m, nil

	case key.Matches(msg, m.keys.refresh):
		return m, m.doRefresh()
	}

	var cmd tea.Cmd
	m.imageList, cmd = m.imageList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ignore input while a submission is in flight.
	if m.snap.Workflow == mirror.WorkflowSubmitting {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.doSubmit()

	case key.Matches(msg, m.keys.no):
		m.listing.CancelDelete()
		m.view = ListView
		return m, nil

	case key.Matches(msg, m.keys.quit):
		m.listing.Close()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.listing.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.back):
		m.resultErr = nil
		m.view = ListView
		return m, nil
	}
	return m, nil
}

// applySnapshot swaps in fresh listing state, preserving the cursor position.
func (m *Model) applySnapshot(snap mirror.Snapshot) {
	m.snap = snap

	selected := make(map[string]bool, len(snap.Selected))
	for _, id := range snap.Selected {
		selected[id] = true
	}

	items := make([]list.Item, len(snap.Sequence))
	for i, img := range snap.Sequence {
		items[i] = imageItem{image: img, selected: selected[img.ID]}
	}

	idx := m.imageList.Index()
	m.imageList.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.imageList.Select(idx)
	}
}

func (m *Model) runFeed() tea.Cmd {
	return func() tea.Msg {
		return feedStoppedMsg{err: m.feed.Run(m.ctx, nil)}
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return feedStoppedMsg{err: m.ctx.Err()}
		case snap := <-m.snapshots:
			return snapshotMsg(snap)
		}
	}
}

func (m *Model) doSubmit() tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{err: m.feed.SubmitDelete(m.ctx, nil)}
	}
}

func (m *Model) doRefresh() tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: m.feed.Refresh(m.ctx, nil)}
	}
}

func (m *Model) renderList() string {
	status := fmt.Sprintf("%d images • %d selected", len(m.snap.Sequence), len(m.snap.Selected))
	if m.snap.Err != nil {
		status += " • " + styles.warn.Render("connection trouble, data may be stale")
	}

	helpKeys := []key.Binding{m.keys.toggle, m.keys.delete, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", m.imageList.View(), status, helpView)
}

func (m *Model) renderConfirm() string {
	ids := m.snap.Selected
	if m.snap.Workflow == mirror.WorkflowSubmitting {
		ids = m.snap.Inflight
	}

	title := styles.title.Render(fmt.Sprintf("Delete %d images?", len(ids)))

	names := make(map[string]string, len(m.snap.Sequence))
	for _, img := range m.snap.Sequence {
		names[img.ID] = img.Name
	}

	var b strings.Builder
	for i, id := range ids {
		if i == confirmPreviewLimit {
			b.WriteString(fmt.Sprintf("  … and %d more\n", len(ids)-confirmPreviewLimit))
			break
		}
		name := names[id]
		if name == "" {
			name = id
		}
		b.WriteString(fmt.Sprintf("  • %s\n", name))
	}

	if m.snap.Workflow == mirror.WorkflowSubmitting {
		return fmt.Sprintf("%s\n%s\nSubmitting...", title, b.String())
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n%s", title, b.String(), helpView)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.resultErr != nil {
		body := styles.err.Render(fmt.Sprintf("Deletion failed: %v", m.resultErr))
		return fmt.Sprintf("%s\n\n%s", body, helpView)
	}

	if len(m.snap.Rejected) > 0 {
		body := styles.warn.Render(fmt.Sprintf("Controller rejected %d ids:", len(m.snap.Rejected)))
		for _, id := range m.snap.Rejected {
			body += fmt.Sprintf("\n  • %s", id)
		}
		return fmt.Sprintf("%s\n\n%s", body, helpView)
	}

	body := styles.ok.Render("✓ Deletion submitted")
	note := styles.help.Render("Images disappear as their deletion events arrive.")
	return fmt.Sprintf("%s\n%s\n\n%s", body, note, helpView)
}
