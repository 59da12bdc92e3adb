package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100
)

// Pane sizing.
const (
	// StatusPaneMinHeight is the smallest status viewport, in lines.
	StatusPaneMinHeight = 4

	// DiagnosticsHeight is the height of the diagnostics pane, in lines.
	DiagnosticsHeight = 8
)

// Log display limits.
const (
	// DiagnosticsTailLines is how many log lines the diagnostics pane reads.
	DiagnosticsTailLines = 200
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = 250 * time.Millisecond

	// RequestTimeout bounds Init and reload calls started from the UI.
	RequestTimeout = 30 * time.Second
)
