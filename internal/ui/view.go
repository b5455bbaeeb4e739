package ui

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/rdx/internal/keytree"
	"github.com/oakwood-commons/rdx/internal/session"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	folderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
)

// View renders the two-panel browser layout.
func (m *Model) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	bodyHeight := m.height - 4
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	treeW := m.treeWidth()
	valueW := m.width - treeW - 4
	if valueW < 20 {
		valueW = 20
	}

	left := panelStyle.Width(treeW).Height(bodyHeight).Render(m.renderTree(treeW-2, bodyHeight))
	right := panelStyle.Width(valueW).Height(bodyHeight).Render(m.renderValue(valueW-2, bodyHeight))

	view := strings.Join([]string{
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.renderFooter(),
	}, "\n")

	v := tea.NewView(view)
	v.AltScreen = true
	return v
}

func (m *Model) renderHeader() string {
	title := fmt.Sprintf("rdx %s — %s", m.ctrl.Name(), m.scanStatus())
	filterLine := fmt.Sprintf("filter [%s]: %s", modeLabel(m.mode), m.filter.View())
	if m.noColor {
		return title + "  " + filterLine
	}
	return headerStyle.Render(title) + "  " + filterLine
}

func (m *Model) renderFooter() string {
	if m.focus == focusConfirm {
		return m.paint(errorStyle, fmt.Sprintf("delete %q? y/n", m.confirmKey))
	}
	if m.focus == focusTTL {
		return "new ttl: " + m.ttlInput.View()
	}
	if m.focus == focusEdit {
		return "edit value (enter saves, esc cancels): " + m.editor.View()
	}
	if m.status != "" {
		if m.statusErr {
			return m.paint(errorStyle, m.status)
		}
		return m.paint(dimStyle, m.status)
	}
	return m.paint(dimStyle, "enter select/expand  / filter  tab mode  m scan more  l load more  e edit  t ttl  d delete  q quit")
}

// renderTree draws the visible window of tree rows around the cursor.
func (m *Model) renderTree(width, height int) string {
	if len(m.rows) == 0 {
		if m.snap.Scanning {
			return m.paint(dimStyle, "scanning...")
		}
		return m.paint(dimStyle, "no keys found")
	}

	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := start + height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		line := m.renderRow(m.rows[i], width)
		if i == m.cursor {
			line = m.paint(selectedStyle, line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m *Model) renderRow(row keytree.Node, width int) string {
	indent := strings.Repeat("  ", row.Depth)
	if row.IsFolder {
		marker := "▸ "
		if _, open := m.expanded[row.ID]; open || m.snap.KeyCount() < m.ctrl.Tuning().AutoExpandBelow {
			marker = "▾ "
		}
		return m.paint(folderStyle, runewidth.Truncate(indent+marker+row.Label, width, "…"))
	}
	badge := ""
	if row.Type != session.Unknown {
		badge = " " + row.Type.Label()
	}
	label := runewidth.Truncate(indent+"  "+row.Label, width-runewidth.StringWidth(badge), "…")
	if badge != "" && !m.noColor {
		return label + " " + lipgloss.NewStyle().Foreground(lipgloss.Color(row.Type.Color())).Render(row.Type.Label())
	}
	return label + badge
}

func (m *Model) renderValue(width, height int) string {
	snap := m.snap
	if snap.ValueErr != "" {
		return m.paint(errorStyle, snap.ValueErr)
	}
	if snap.SelectedKey == "" || snap.Value == nil {
		return m.paint(dimStyle, "select a key to load its value")
	}
	v := snap.Value
	if v.IsMissing() {
		return m.paint(errorStyle, fmt.Sprintf("%s\nkey no longer exists", snap.SelectedKey))
	}

	header := fmt.Sprintf("%s  [%s]  size %d", snap.SelectedKey, v.Type.Label(), v.Size)
	if remaining, ok := v.TTLRemaining(time.Now()); ok && remaining >= 0 {
		header += fmt.Sprintf("  ttl %s", remaining.Round(time.Second))
	}
	if snap.Updating {
		header += "  (saving...)"
	}
	if snap.Deleting {
		header += "  (deleting...)"
	}

	body := m.renderValueBody(v, width, height-2)
	return m.paint(headerStyle, runewidth.Truncate(header, width, "…")) + "\n\n" + body
}

func (m *Model) renderValueBody(v *session.Value, width, height int) string {
	switch data := v.Data.(type) {
	case session.StringData:
		return clipLines(string(data), width, height)
	case session.BytesData:
		return clipLines(hex.Dump(data), width, height)
	case session.ListData:
		var b strings.Builder
		for i, elem := range data.Loaded {
			if i >= height-1 {
				break
			}
			b.WriteString(runewidth.Truncate(fmt.Sprintf("%4d  %s", i, elem), width, "…"))
			b.WriteByte('\n')
		}
		footer := fmt.Sprintf("%d of %d loaded", len(data.Loaded), data.Total)
		if m.listBusy {
			footer += ", loading..."
		} else if len(data.Loaded) < data.Total {
			footer += ", press l for more"
		}
		b.WriteString(m.paint(dimStyle, footer))
		return b.String()
	default:
		return ""
	}
}

func clipLines(text string, width, height int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = runewidth.Truncate(line, width, "…")
	}
	return strings.Join(lines, "\n")
}

func (m *Model) paint(style lipgloss.Style, text string) string {
	if m.noColor {
		return text
	}
	return style.Render(text)
}
