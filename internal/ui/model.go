// Package ui implements the interactive key-space browser: a tree panel
// over the discovered keys, a value panel for the selected key, and a
// filter input driving new scans. The model is a pull-based consumer of
// session snapshots; it re-reads state on every change notification and
// rebuilds its tree rows only when the snapshot's tree version moved.
package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/rdx/internal/config"
	"github.com/oakwood-commons/rdx/internal/keytree"
	"github.com/oakwood-commons/rdx/internal/session"
)

// Controller is the slice of the session surface the browser drives.
// *session.Session satisfies it; tests substitute a scripted fake.
type Controller interface {
	Name() string
	Separator() string
	Tuning() config.ScanTuning
	Snapshot() *session.Snapshot
	Changes() <-chan struct{}
	StartScan(keyword string, mode session.QueryMode)
	ScanMore()
	ScanPrefix(prefix string)
	SelectKey(key string)
	LoadMoreListValue()
	Save(key, value string)
	SetTTL(key, human string) error
	DeleteKey(key string)
}

type focusArea int

const (
	focusTree focusArea = iota
	focusFilter
	focusEdit
	focusTTL
	focusConfirm
)

// changedMsg signals that the session published a new snapshot.
type changedMsg struct{}

// Model is the bubbletea model of the browser.
type Model struct {
	ctrl Controller

	snap     *session.Snapshot
	rows     []keytree.Node
	lastTree string
	expanded map[string]struct{}
	cursor   int

	filter   textinput.Model
	editor   textinput.Model
	ttlInput textinput.Model
	focus    focusArea
	mode     session.QueryMode

	// confirmKey holds the key a pending delete confirmation refers to.
	confirmKey string

	// listBusy gates load-more requests until the previous page landed.
	listBusy     bool
	lastListLoad int

	status    string
	statusErr bool

	width   int
	height  int
	noColor bool

	quitting bool
}

// NewModel builds the browser model over a session controller.
func NewModel(ctrl Controller, noColor bool) *Model {
	fi := textinput.New()
	fi.Placeholder = "filter keyword"
	fi.CharLimit = 200
	fi.Prompt = ""

	ed := textinput.New()
	ed.CharLimit = 0
	ed.Prompt = ""

	ti := textinput.New()
	ti.Placeholder = `duration, e.g. "1h30m"`
	ti.CharLimit = 32
	ti.Prompt = ""

	m := &Model{
		ctrl:     ctrl,
		expanded: make(map[string]struct{}),
		filter:   fi,
		editor:   ed,
		ttlInput: ti,
		mode:     session.ModeAll,
		width:    80,
		height:   24,
		noColor:  noColor,
	}
	m.applySnapshot(ctrl.Snapshot())
	return m
}

// Init starts the first scan and subscribes to change notifications.
func (m *Model) Init() tea.Cmd {
	m.ctrl.StartScan("", m.mode)
	return tea.Batch(waitForChange(m.ctrl.Changes()), textinput.Blink)
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// Update routes messages by focus area.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filter.SetWidth(m.treeWidth() - 4)
		m.editor.SetWidth(m.width - m.treeWidth() - 6)
		m.ttlInput.SetWidth(24)
		return m, nil

	case changedMsg:
		m.applySnapshot(m.ctrl.Snapshot())
		return m, waitForChange(m.ctrl.Changes())

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.focus {
		case focusFilter:
			return m.updateFilter(msg)
		case focusEdit:
			return m.updateEditor(msg)
		case focusTTL:
			return m.updateTTL(msg)
		case focusConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateTree(msg)
		}
	}
	return m, nil
}

// applySnapshot pulls fresh state and rebuilds the tree rows when the
// snapshot's tree version moved since the last build.
func (m *Model) applySnapshot(snap *session.Snapshot) {
	m.snap = snap
	if list, ok := snap.Value.ListValue(); ok {
		if len(list.Loaded) != m.lastListLoad {
			m.listBusy = false
		}
		m.lastListLoad = len(list.Loaded)
	} else {
		m.listBusy = false
		m.lastListLoad = 0
	}
	if snap.TreeVersion == m.lastTree {
		return
	}
	m.lastTree = snap.TreeVersion
	m.rebuildRows()
}

func (m *Model) rebuildRows() {
	nodes := keytree.Build(m.snap.Keys, keytree.Options{
		Separator:       m.ctrl.Separator(),
		Expanded:        m.expanded,
		AutoExpandBelow: m.ctrl.Tuning().AutoExpandBelow,
	})
	m.rows = keytree.Flatten(nodes)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) currentRow() (keytree.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return keytree.Node{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "enter", "space":
		row, ok := m.currentRow()
		if !ok {
			break
		}
		if row.IsFolder {
			m.toggleFolder(row)
			break
		}
		m.ctrl.SelectKey(row.ID)
	case "/":
		m.focus = focusFilter
		return m, m.filter.Focus()
	case "tab":
		m.mode = nextMode(m.mode)
	case "m":
		m.ctrl.ScanMore()
	case "l":
		m.loadMore()
	case "e":
		return m.beginEdit()
	case "t":
		return m.beginTTL()
	case "d":
		if row, ok := m.currentRow(); ok && !row.IsFolder {
			m.confirmKey = row.ID
			m.focus = focusConfirm
		}
	}
	return m, nil
}

func (m *Model) toggleFolder(row keytree.Node) {
	if _, open := m.expanded[row.ID]; open {
		delete(m.expanded, row.ID)
	} else {
		m.expanded[row.ID] = struct{}{}
		m.ctrl.ScanPrefix(row.ID + m.ctrl.Separator())
	}
	m.rebuildRows()
}

func (m *Model) loadMore() {
	if m.listBusy {
		return
	}
	list, ok := m.snap.Value.ListValue()
	if !ok || len(list.Loaded) >= list.Total {
		return
	}
	m.listBusy = true
	m.ctrl.LoadMoreListValue()
}

func (m *Model) beginEdit() (tea.Model, tea.Cmd) {
	text, ok := m.snap.Value.StringValue()
	if !ok || m.snap.SelectedKey == "" {
		m.setStatus("only string values can be edited", true)
		return m, nil
	}
	m.editor.SetValue(text)
	m.focus = focusEdit
	return m, m.editor.Focus()
}

func (m *Model) beginTTL() (tea.Model, tea.Cmd) {
	if m.snap.SelectedKey == "" {
		m.setStatus("select a key first", true)
		return m, nil
	}
	m.ttlInput.SetValue("")
	m.focus = focusTTL
	return m, m.ttlInput.Focus()
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.focus = focusTree
		m.filter.Blur()
		m.expanded = make(map[string]struct{})
		m.cursor = 0
		m.ctrl.StartScan(strings.TrimSpace(m.filter.Value()), m.mode)
		return m, nil
	case "esc":
		m.focus = focusTree
		m.filter.Blur()
		return m, nil
	case "tab":
		m.mode = nextMode(m.mode)
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m *Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.focus = focusTree
		m.editor.Blur()
		m.ctrl.Save(m.snap.SelectedKey, m.editor.Value())
		m.setStatus("saving "+m.snap.SelectedKey, false)
		return m, nil
	case "esc":
		m.focus = focusTree
		m.editor.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *Model) updateTTL(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.focus = focusTree
		m.ttlInput.Blur()
		if err := m.ctrl.SetTTL(m.snap.SelectedKey, strings.TrimSpace(m.ttlInput.Value())); err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.setStatus("ttl updated for "+m.snap.SelectedKey, false)
		return m, nil
	case "esc":
		m.focus = focusTree
		m.ttlInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.ttlInput, cmd = m.ttlInput.Update(msg)
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.ctrl.DeleteKey(m.confirmKey)
		m.setStatus("deleting "+m.confirmKey, false)
	}
	m.confirmKey = ""
	m.focus = focusTree
	return m, nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func nextMode(mode session.QueryMode) session.QueryMode {
	switch mode {
	case session.ModeAll:
		return session.ModePrefix
	case session.ModePrefix:
		return session.ModeExact
	default:
		return session.ModeAll
	}
}

func modeLabel(mode session.QueryMode) string {
	switch mode {
	case session.ModePrefix:
		return "prefix"
	case session.ModeExact:
		return "exact"
	default:
		return "all"
	}
}

func (m *Model) treeWidth() int {
	w := m.width * 2 / 5
	if w < 24 {
		w = 24
	}
	return w
}

func (m *Model) scanStatus() string {
	switch {
	case m.snap.Scanning:
		return "scanning..."
	case m.snap.Completed:
		return fmt.Sprintf("%d keys", m.snap.KeyCount())
	default:
		return fmt.Sprintf("%d keys (partial, press m for more)", m.snap.KeyCount())
	}
}
