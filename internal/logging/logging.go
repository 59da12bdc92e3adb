// Package logging builds the slog logger shared by every histoqcview command.
//
// Records always go to a JSON log file, which the watch UI tails for its
// diagnostics pane. Headless commands additionally mirror records to stderr
// as text; the TUI never does, since stray writes would corrupt the screen.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// Options selects where records go.
type Options struct {
	// File is the JSON log path. Empty disables the file sink.
	File string
	// Stderr receives a text copy of every record when non-nil.
	Stderr io.Writer
	Level  slog.Level
}

// Setup opens the log file (creating its directory) and returns a logger
// fanning out to every configured sink, plus a cleanup that closes the file.
// When the file cannot be opened the logger falls back to Stderr alone and
// the open error is returned alongside it.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }

	if opts.File == "" {
		return NewWithWriters(opts.Stderr, nil, opts.Level), noop, nil
	}

	file, err := openLogFile(opts.File)
	if err != nil {
		logger := NewWithWriters(opts.Stderr, nil, opts.Level)
		logger.Warn("failed to open log file, file logging disabled", "error", err, "file", opts.File)
		return logger, noop, err
	}

	return NewWithWriters(opts.Stderr, file, opts.Level), file.Close, nil
}

// NewWithWriters creates a logger writing text to stderr and JSON to file.
// Either writer may be nil; with both nil records are discarded.
func NewWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	var handlers []slog.Handler
	if stderr != nil {
		handlers = append(handlers, slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	}
	if file != nil {
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	}
	if len(handlers) == 0 {
		handlers = append(handlers, slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
