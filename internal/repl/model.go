// Package repl implements an interactive row/attribute browser for a
// decoded reply.Reply, presented as a Bubble Tea program from cmd/stash-cli.
package repl

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/stashdb/go-stash/cond"
	"github.com/stashdb/go-stash/internal/clipboard"
	"github.com/stashdb/go-stash/reply"
	"github.com/stashdb/go-stash/value"
)

var (
	borderColor = lipgloss.Color("240")
	headerStyle = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
	borderedBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderColor)
)

// Model browses the rows and attributes of a single reply.Reply. It does
// not touch Reply's own NextRow cursor; browsing is read-only over
// r.Rows.
type Model struct {
	reply *reply.Reply
	cond  *cond.Node

	width, height int
	row, col      int
	status        string
}

// New returns a Model over r's rows, optionally annotating the view with
// the condition tree that produced it (nil if the reply came from a
// non-query operation).
func New(r *reply.Reply, query *cond.Node) Model {
	return Model{reply: r, cond: query, width: 80, height: 24}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "down", "j":
			if m.row < len(m.reply.Rows)-1 {
				m.row++
			}
		case "up", "k":
			if m.row > 0 {
				m.row--
			}
		case "right", "l":
			if attrs := m.currentAttrs(); m.col < len(attrs)-1 {
				m.col++
			}
		case "left", "h":
			if m.col > 0 {
				m.col--
			}
		case "y":
			m.status = m.yank()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) currentAttrs() []attrCell {
	if m.row < 0 || m.row >= len(m.reply.Rows) {
		return nil
	}
	row := m.reply.Rows[m.row]
	cells := make([]attrCell, len(row.Attrs))
	for i, a := range row.Attrs {
		cells[i] = attrCell{keyID: a.KeyID, text: cellText(a.Value)}
	}
	return cells
}

type attrCell struct {
	keyID int32
	text  string
}

func cellText(v value.Value) string {
	switch v.Kind() {
	case value.KindInt:
		return fmt.Sprintf("%d", v.Int32())
	case value.KindAuto:
		return "AUTO"
	default:
		if v.IsNull() {
			return "NULL"
		}
		return string(v.Bytes())
	}
}

// yank copies the currently selected attribute's value to the system
// clipboard and returns a status line describing the result.
func (m Model) yank() string {
	attrs := m.currentAttrs()
	if m.col < 0 || m.col >= len(attrs) {
		return "nothing to yank"
	}
	cell := attrs[m.col]
	if err := clipboard.Copy(context.Background(), cell.text); err != nil {
		return fmt.Sprintf("yank failed: %v", err)
	}
	return fmt.Sprintf("yanked key(%d)", cell.keyID)
}

func (m Model) View() string {
	var b strings.Builder

	if m.cond != nil {
		b.WriteString(headerStyle.Render("condition: "))
		b.WriteString(highlightCondition(m.cond.String()))
		b.WriteString("\n\n")
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("rows: %d", len(m.reply.Rows))))
	b.WriteString("\n")

	innerWidth := max(m.width-4, 20)
	var lines []string
	for i, row := range m.reply.Rows {
		line := fmt.Sprintf("row_id=%d name_id=%d  %s", row.RowID, row.NameID, m.renderAttrs(row, i))
		line = truncateDisplay(line, innerWidth)
		if i == m.row {
			line = cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = []string{statusStyle.Render("(no rows)")}
	}

	box := borderedBox.Width(innerWidth).Render(strings.Join(lines, "\n"))
	b.WriteString(box)
	b.WriteString("\n")

	status := m.status
	if status == "" {
		status = "j/k: row  h/l: attribute  y: yank cell  q: quit"
	}
	b.WriteString(statusStyle.Render(status))

	return b.String()
}

func (m Model) renderAttrs(row reply.Row, rowIndex int) string {
	var parts []string
	for i, a := range row.Attrs {
		text := fmt.Sprintf("%d=%s", a.KeyID, cellText(a.Value))
		if rowIndex == m.row && i == m.col {
			text = cursorStyle.Render(text)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "  ")
}

// truncateDisplay clips s to width columns as measured by ansi.StringWidth
// (accounting for already-applied ANSI styling), appending an ellipsis.
func truncateDisplay(s string, width int) string {
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width-1, "…")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
