// Package report renders the widget state as a standalone HTML page for the
// headless run command, and echoes job progress to a text stream.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/five82/histoqcview/internal/render"
	"github.com/five82/histoqcview/internal/state"
)

// DefaultMountID is the id of the element the widget is placed after.
const DefaultMountID = "g-folder-items"

// Page renders snap as a complete HTML document.
func Page(snap state.Snapshot, title string) string {
	if strings.TrimSpace(title) == "" {
		title = "HistoQC"
	}
	return render.Page(title, DefaultMountID, render.WidgetBlock(snap.View()))
}

// Write renders snap and writes it to path, or to stdout when path is "" or
// "-". Files are replaced atomically.
func Write(path string, snap state.Snapshot, title string, stdout io.Writer) error {
	page := Page(snap, title)
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, page)
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".histoqc-report-*.html")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(page); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}

// StatusArea is the status element Echo wraps.
type StatusArea interface {
	Show()
	Hide()
	SetText(text string)
	ScrollToBottom()
}

// Echo forwards to a StatusArea and prints the newly appended part of each
// status text to Out. Job logs only grow, so the new part is the suffix.
type Echo struct {
	StatusArea
	Out io.Writer

	mu   sync.Mutex
	last string
}

// SetText forwards text and prints what was appended since the last call.
// A text that does not extend the previous one is printed whole.
func (e *Echo) SetText(text string) {
	e.StatusArea.SetText(text)

	e.mu.Lock()
	defer e.mu.Unlock()
	added := text
	if strings.HasPrefix(text, e.last) {
		added = text[len(e.last):]
	}
	e.last = text
	if e.Out == nil {
		return
	}
	for _, line := range strings.Split(added, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintln(e.Out, line)
	}
}
