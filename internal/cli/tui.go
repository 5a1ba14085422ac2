package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/kinchart/pkg/graph"
)

var (
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	listCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// PersonListModel is the bubbletea model for choosing a focus person. Typing
// filters the list by name or ID.
type PersonListModel struct {
	Persons  []graph.Person
	Current  string // the chart's default focus, marked in the list
	Cursor   int
	Offset   int
	Height   int
	Filter   string
	Selected *graph.Person

	visible []int
}

// NewPersonListModel creates a picker over the chart's persons.
func NewPersonListModel(c graph.Chart) PersonListModel {
	m := PersonListModel{Persons: c.Persons, Current: c.Focus, Height: 15}
	m.refilter()
	for i, idx := range m.visible {
		if m.Persons[idx].ID == c.Focus {
			m.Cursor = i
		}
	}
	m.scroll()
	return m
}

func (m PersonListModel) Init() tea.Cmd {
	return nil
}

func (m PersonListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.Cursor > 0 {
				m.Cursor--
			}
		case tea.KeyDown:
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
			}
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			p := m.Persons[m.visible[m.Cursor]]
			m.Selected = &p
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				r := []rune(m.Filter)
				m.Filter = string(r[:len(r)-1])
				m.refilter()
			}
		case tea.KeySpace:
			m.Filter += " "
			m.refilter()
		case tea.KeyRunes:
			m.Filter += string(msg.Runes)
			m.refilter()
		}
		m.scroll()
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.scroll()
	}
	return m, nil
}

// refilter recomputes the visible rows and resets the cursor.
func (m *PersonListModel) refilter() {
	m.visible = nil
	q := strings.ToLower(m.Filter)
	for i, p := range m.Persons {
		if q == "" || strings.Contains(strings.ToLower(p.ID), q) || strings.Contains(strings.ToLower(p.Name), q) {
			m.visible = append(m.visible, i)
		}
	}
	m.Cursor = 0
	m.Offset = 0
}

// scroll keeps the cursor inside the visible window.
func (m *PersonListModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m PersonListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Focus Person"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  type to filter  esc quit"))
	b.WriteString("\n")
	if m.Filter != "" {
		b.WriteString(StyleValue.Render("filter: " + m.Filter))
	}
	b.WriteString("\n")

	end := min(m.Offset+m.Height, len(m.visible))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		p := m.Persons[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		name := p.Name
		if p.ID == m.Current {
			name += " ★"
		}
		rows = append(rows, []string{cursor, p.ID, name, dash(p.Sex), dash(p.Birth)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "Sex", "Born").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return listHeaderStyle
			case m.Offset+row == m.Cursor:
				return listCursorStyle
			case col >= 3:
				return listDimStyle
			default:
				return lipgloss.NewStyle()
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	if len(m.visible) == 0 {
		b.WriteString(listDimStyle.Render("  no matches"))
	} else {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.visible))))
	}
	return b.String()
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
