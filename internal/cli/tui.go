package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// IssueListModel - Interactive issue review
// =============================================================================

// Issue is one flagged position: an active error or a warning.
type Issue struct {
	Position position.Position
	Message  string
	Warning  bool
}

// collectIssues returns the errors and warnings in the links, sorted by
// position with errors before warnings.
func collectIssues(l *links.Links) []Issue {
	var issues []Issue
	for _, p := range markers.FindErroredPositions(l) {
		e, _ := markers.GetErrorMarker(l, p)
		issues = append(issues, Issue{Position: p, Message: e.Message()})
	}
	for _, p := range markers.FindWarnedPositions(l) {
		text, _ := markers.GetWarningMarker(l, p)
		issues = append(issues, Issue{Position: p, Message: text, Warning: true})
	}
	slices.SortStableFunc(issues, func(a, b Issue) int {
		return position.Compare(a.Position, b.Position)
	})
	return issues
}

// IssueListModel is the bubbletea model for reviewing issues one at a time.
// Dismissing an issue suppresses its error and clears its warning in the
// links right away; the caller saves the file when Save is set.
type IssueListModel struct {
	Links     *links.Links
	Issues    []Issue
	Cursor    int
	Offset    int
	Height    int
	Dismissed int
	Save      bool
}

// NewIssueListModel creates a new issue list model.
func NewIssueListModel(l *links.Links) IssueListModel {
	return IssueListModel{
		Links:  l,
		Issues: collectIssues(l),
		Height: 15,
	}
}

func (m IssueListModel) Init() tea.Cmd {
	return nil
}

func (m IssueListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			m.Save = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Issues)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "d", "enter":
			if len(m.Issues) == 0 {
				return m, nil
			}
			m = m.dismiss()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

// dismiss handles the issue under the cursor. The issues slice is copied
// so earlier model values keep their list.
func (m IssueListModel) dismiss() IssueListModel {
	markers.DismissIssue(m.Links, m.Issues[m.Cursor].Position)
	m.Dismissed++
	// Errors and warnings at one position go together.
	p := m.Issues[m.Cursor].Position
	m.Issues = slices.DeleteFunc(slices.Clone(m.Issues), func(is Issue) bool { return is.Position == p })
	if m.Cursor >= len(m.Issues) {
		m.Cursor = max(len(m.Issues)-1, 0)
	}
	if m.Offset > m.Cursor {
		m.Offset = m.Cursor
	}
	return m
}

func (m IssueListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Review Issues"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  d dismiss  s save and quit  q quit without saving"))
	b.WriteString("\n\n")

	if len(m.Issues) == 0 {
		b.WriteString(StyleSuccess.Render("All issues handled."))
		b.WriteString("\n\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d dismissed, press s to save", m.Dismissed)))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Issues))
	var rows [][]string
	for i := m.Offset; i < end; i++ {
		is := m.Issues[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		kind := "error"
		if is.Warning {
			kind = "warning"
		}
		p := is.Position
		rows = append(rows, []string{
			cursor,
			fmt.Sprintf("%d", p.TimePointNumber),
			fmt.Sprintf("%.1f, %.1f, %.1f", p.X, p.Y, p.Z),
			kind,
			is.Message,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "t", "Position", "Kind", "Problem").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Issues) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 3 {
				if m.Issues[idx].Warning {
					base = base.Foreground(colorYellow)
				} else {
					base = base.Foreground(colorRed)
				}
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d dismissed", m.Cursor+1, len(m.Issues), m.Dismissed)))

	return b.String()
}
