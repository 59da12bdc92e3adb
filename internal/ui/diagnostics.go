package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/histoqcview/internal/logtail"
)

// diagnosticsState backs the log pane toggled with d.
type diagnosticsState struct {
	visible bool
	entries []logtail.Entry
	changes <-chan struct{}
	err     error
}

type logWatchMsg struct {
	changes <-chan struct{}
	err     error
}

type logChangedMsg struct{}

type logLinesMsg struct {
	entries []logtail.Entry
	err     error
}

// startDiagnostics reads the log once and subscribes to later writes.
func (m Model) startDiagnostics() []tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	return []tea.Cmd{readLogsCmd(m.logPath), watchLogCmd(m)}
}

func readLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, DiagnosticsTailLines)
		return logLinesMsg{entries: logtail.ParseLines(lines), err: err}
	}
}

func watchLogCmd(m Model) tea.Cmd {
	ctx, path := m.ctx, m.logPath
	return func() tea.Msg {
		changes, err := logtail.Watch(ctx, path)
		return logWatchMsg{changes: changes, err: err}
	}
}

// waitLogChangeCmd blocks until the log file changes. A closed channel ends
// the subscription.
func waitLogChangeCmd(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return logChangedMsg{}
	}
}

func (m Model) diagnosticsHeight() int {
	if !m.diag.visible {
		return 0
	}
	return DiagnosticsHeight + 2
}

// renderDiagnostics renders the newest log entries that fit the pane.
func (m Model) renderDiagnostics() string {
	styles := m.theme.Styles()
	width := max(m.width-4, 10)

	var lines []string
	switch {
	case m.diag.err != nil:
		lines = append(lines, styles.DangerText.Render(fmt.Sprintf("log unavailable: %v", m.diag.err)))
	case m.logPath == "":
		lines = append(lines, styles.MutedText.Render("File logging is disabled"))
	case len(m.diag.entries) == 0:
		lines = append(lines, styles.MutedText.Render("No log entries yet"))
	default:
		entries := m.diag.entries
		if len(entries) > DiagnosticsHeight {
			entries = entries[len(entries)-DiagnosticsHeight:]
		}
		for _, e := range entries {
			lines = append(lines, m.levelStyle(e.Level).Render(truncate(e.String(), width)))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderMuted)).
		Width(max(m.width-2, 10)).
		Height(DiagnosticsHeight).
		Render(strings.Join(lines, "\n"))
}

func (m Model) levelStyle(level string) lipgloss.Style {
	styles := m.theme.Styles()
	switch level {
	case "ERROR":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "DEBUG":
		return styles.FaintText
	default:
		return styles.Text
	}
}
