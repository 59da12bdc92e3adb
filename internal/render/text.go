package render

import (
	"fmt"
	"strings"
)

// statusSeparator precedes every log line in the status area.
const statusSeparator = "\n\n"

// StatusText renders the full job log for the status area. Each line is
// preceded by a blank line. The output depends only on lines.
func StatusText(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(statusSeparator)
		b.WriteString(line)
	}
	return b.String()
}

// StartedText announces a freshly triggered job.
func StartedText(jobID string) string {
	return fmt.Sprintf("HistoQC job %s has started. Please wait...", jobID)
}
