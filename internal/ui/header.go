package ui

import (
	"errors"
	"net"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/histoqcview/internal/girder"
)

// renderHeader renders the status bar: logo, connection state, folder, job.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("histoqc", styles.Logo)}

	switch {
	case m.snapshot.LastError != nil:
		label := classifyConnectionError(m.snapshot.LastError)
		parts = append(parts, bg.Render("GIRDER "+label, styles.DangerText))
		if m.snapshot.IsOffline() {
			parts = append(parts, bg.Render("Retry with r or R", styles.WarningText.Bold(true)))
		}
	case !m.snapshot.Mounted:
		parts = append(parts, bg.Render("Connecting to Girder...", styles.WarningText.Bold(true)))
	case m.busy:
		parts = append(parts, styles.StatusStyle(girder.JobRunning).Render("RUNNING"))
	default:
		parts = append(parts, bg.Render("● READY", styles.SuccessText))
	}

	if m.widget != nil {
		parts = append(parts, bg.Pair("Folder:", m.widget.FolderID(), styles.MutedText, styles.Text))
	}
	if m.jobID != "" {
		parts = append(parts, bg.Pair("Job:", m.jobID, styles.MutedText, styles.Text))
	}
	if !compact && m.apiRoot != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.apiRoot, 40), styles.FaintText))
	}
	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, bg.Render(m.snapshot.LastUpdated.Format("15:04:05"), styles.MutedText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, sep))
}

// renderCommandBar shows the available actions and the latest notice.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	keyStyle := styles.AccentText.Bold(true)

	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, bg.Render(h.Key, keyStyle)+bg.Space()+bg.Render(h.Desc, styles.MutedText))
	}
	line := bg.Join(parts, "  ")

	if m.notice != "" {
		noticeStyle := styles.InfoText
		if m.noticeErr {
			noticeStyle = styles.DangerText
		}
		line += bg.Spaces(3) + bg.Render(truncate(m.notice, max(m.width/2, 20)), noticeStyle)
	}
	return bg.FillLine(line, m.width)
}

// classifyConnectionError returns a short description of a Girder failure.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	if girder.IsUnauthorized(err) {
		return "UNAUTHORIZED"
	}
	if errors.Is(err, girder.ErrMalformedResponse) {
		return "BAD RESPONSE"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "TIMEOUT"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}
