package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/five82/histoqcview/internal/render"
)

// HiddenResultsMessage replaces the table while a run is in flight.
const HiddenResultsMessage = "Results hidden while HistoQC runs"

// renderWidget renders the button line, status pane, and results table in
// the order the HTML widget stacks them.
func (m Model) renderWidget() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	var sections []string

	if snap.ButtonVisible {
		button := lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.Background)).
			Background(lipgloss.Color(m.theme.Accent)).
			Bold(true).
			Padding(0, 1).
			Render("[r] " + render.ButtonLabel)
		sections = append(sections, button)
	} else {
		sections = append(sections, styles.MutedText.Render("HistoQC job running..."))
	}

	if snap.StatusVisible && snap.StatusText != "" {
		sections = append(sections, m.renderStatusPane())
	}

	sections = append(sections, m.renderResults(m.tableHeight()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStatusPane() string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderMuted)).
		Width(max(m.width-2, 10)).
		Render(m.statusViewport.View())
}

// renderResults renders the results table, trimming rows to height.
func (m Model) renderResults(height int) string {
	styles := m.theme.Styles()
	snap := m.snapshot

	switch {
	case !snap.TableVisible:
		return styles.FaintText.Render(HiddenResultsMessage)
	case !snap.HasTable:
		return styles.MutedText.Render(render.LoadingMessage)
	case snap.Table.Empty():
		return styles.WarningText.Render(render.NoOutputsMessage)
	}

	rows := snap.Table.Rows
	// Border, header, and header separator take four lines.
	limit := max(height-4, 1)
	more := 0
	if len(rows) > limit {
		more = len(rows) - (limit - 1)
		rows = rows[:limit-1]
	}

	headerStyle := styles.AccentText.Bold(true).Padding(0, 1)
	cellStyle := styles.Text.Padding(0, 1)
	sourceStyle := styles.InfoText.Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Border))).
		Width(m.width).
		Headers(snap.Table.Headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return sourceStyle
			default:
				return cellStyle
			}
		})
	for _, row := range rows {
		t.Row(tableRow(row)...)
	}

	out := t.Render()
	if more > 0 {
		out += "\n" + styles.FaintText.Render(fmt.Sprintf("+%d more", more))
	}
	return out
}

// tableRow lists the source name followed by each artifact's item id.
func tableRow(row render.Row) []string {
	cells := make([]string, 0, len(row.Cells)+1)
	cells = append(cells, row.Source)
	for _, c := range row.Cells {
		cells = append(cells, c.ItemID)
	}
	return cells
}

// statusHeight returns the status viewport height for the current window.
func (m Model) statusHeight() int {
	available := m.height - 3 - m.diagnosticsHeight()
	return max(StatusPaneMinHeight, available/3)
}

// tableHeight returns the lines left for the results table.
func (m Model) tableHeight() int {
	used := 3 + m.diagnosticsHeight()
	if m.snapshot.StatusVisible && m.snapshot.StatusText != "" {
		used += m.statusHeight() + 2
	}
	return max(m.height-used, 5)
}

// layoutStatusViewport sizes the status viewport to the window.
func (m *Model) layoutStatusViewport() {
	if !m.ready {
		return
	}
	width := max(m.width-4, 10)
	if m.statusViewport.Width != width {
		m.statusViewport.Width = width
		m.statusViewport.SetContent(formatStatusText(m.snapshot.StatusText, width))
	}
	m.statusViewport.Height = m.statusHeight()
}

// formatStatusText drops the leading blank lines of the job log and wraps
// the rest to width.
func formatStatusText(text string, width int) string {
	text = strings.TrimLeft(text, "\n")
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
