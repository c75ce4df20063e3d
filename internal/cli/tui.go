package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/platepack/pkg/render"
	"github.com/matzehuels/platepack/pkg/store"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// RunListModel - Interactive run browser
// =============================================================================

// RunListModel is the bubbletea model for browsing archived runs. Enter
// toggles a preview of the selected packing; d marks it for deletion.
type RunListModel struct {
	Runs     []*store.Record
	Cursor   int
	Height   int
	Offset   int
	Preview  bool
	Selected *store.Record
	Deleted  []string
	now      func() time.Time
}

// NewRunListModel creates a new run list model.
func NewRunListModel(runs []*store.Record) RunListModel {
	return RunListModel{
		Runs:   runs,
		Height: 15,
		now:    time.Now,
	}
}

func (m RunListModel) Init() tea.Cmd {
	return nil
}

func (m RunListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.Preview && msg.String() == "esc" {
				m.Preview = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Runs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Runs) == 0 {
				return m, nil
			}
			m.Preview = !m.Preview
			m.Selected = m.Runs[m.Cursor]
		case "d":
			if len(m.Runs) == 0 {
				return m, nil
			}
			m.Deleted = append(m.Deleted, m.Runs[m.Cursor].ID)
			m.Runs = append(m.Runs[:m.Cursor:m.Cursor], m.Runs[m.Cursor+1:]...)
			if m.Cursor >= len(m.Runs) && m.Cursor > 0 {
				m.Cursor--
			}
			if m.Offset > m.Cursor {
				m.Offset = m.Cursor
			}
			m.Preview = false
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m RunListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Archived Runs"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ preview  d delete  q quit"))
	b.WriteString("\n\n")

	if len(m.Runs) == 0 {
		b.WriteString(listDimStyle.Render("  no runs"))
		return b.String()
	}

	if m.Preview && m.Selected != nil {
		b.WriteString(m.preview(m.Selected))
		return b.String()
	}

	b.WriteString(runTable(m.Runs, m.Offset, m.Height, m.Cursor, m.now()))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Runs))))

	return b.String()
}

// preview draws the selected run's packing.
func (m RunListModel) preview(r *store.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", StyleValue.Render(r.Name), statusStyle(r.Status).Render(r.Status))
	if r.Outcome == nil || r.Outcome.Solution == nil || r.Instance == nil {
		b.WriteString(listDimStyle.Render("  no packing"))
		return b.String()
	}
	b.WriteString(render.RenderASCII(r.Instance, r.Outcome.Solution, render.WithColor()))
	return b.String()
}

// runTable renders rows [offset, offset+height) of runs. A cursor of -1
// highlights nothing.
func runTable(runs []*store.Record, offset, height, cursor int, now time.Time) string {
	end := min(offset+height, len(runs))

	rows := [][]string{}
	for i := offset; i < end; i++ {
		r := runs[i]
		marker := "  "
		if i == cursor {
			marker = "▸ "
		}
		length := "-"
		if r.Length > 0 {
			length = fmt.Sprint(r.Length)
		}
		circuits := "-"
		if r.Instance != nil {
			circuits = fmt.Sprint(r.Instance.N)
		}
		rows = append(rows, []string{marker, shortID(r.ID), r.Name, circuits, r.Strategy, r.Status, length, formatRelativeTime(r.CreatedAt, now)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "Circuits", "Strategy", "Status", "Length", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := offset + row
			if idx >= len(runs) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			switch col {
			case 1, 7:
				base = base.Foreground(colorDim)
			case 5:
				base = statusStyle(runs[idx].Status)
			}
			if idx == cursor {
				if col != 1 && col != 5 && col != 7 {
					base = base.Foreground(colorCyan)
				}
				return base.Bold(true)
			}
			return base
		})

	return t.Render()
}

// =============================================================================
// Helpers
// =============================================================================

// shortID abbreviates a run id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
