// Package logtail reads, decodes and watches the histoqcview diagnostic log.
//
// # Overview
//
// histoqcview writes JSON log records (one per line) to a file while the TUI
// owns the terminal. The diagnostics pane shows the tail of that file. This
// package provides the three pieces the pane needs:
//
//  1. Read: Efficiently extract the last N lines from a log file
//  2. Parse/ParseLines: Decode slog JSON records into Entry values
//  3. Watch: Notify when the file changes so the pane can refresh
//
// # Reading Log Files
//
// The Read function uses a ring buffer to extract the last maxLines from a
// file, regardless of file size:
//
//   - Scans the file sequentially (one pass)
//   - Uses O(maxLines) memory, not O(file size)
//   - Returns lines in correct chronological order
//
// A non-positive maxLines returns the whole file.
//
// Example usage:
//
//	lines, err := logtail.Read("/home/me/.local/state/histoqcview/histoqcview.log", 400)
//	if err != nil {
//		slog.Warn("read diagnostics", "error", err)
//	}
//
// # Ring Buffer Algorithm
//
//	1. Allocate ring buffer of size maxLines
//	2. For each line in file:
//	   - Store line at current index
//	   - Increment index (wrapping at maxLines)
//	   - Track total lines seen
//	3. If total < maxLines:
//	   - Return first 'count' entries from buffer
//	4. If total >= maxLines:
//	   - Return buffer starting from current index (oldest line)
//
// # Decoding
//
// Parse understands the records produced by slog.JSONHandler: "time",
// "level" and "msg" become fields of Entry; every other top-level key becomes
// an Attr, sorted by key. Nested groups are re-encoded as compact JSON.
// Lines that are not JSON objects are kept verbatim as the message.
//
// Entry.String renders a compact line for display:
//
//	10:15:30 WARN job status poll failed error="connection reset" job_id=abc
//
// Colouring by level is left to the UI, which knows the active theme.
//
// # Watching
//
// Watch uses fsnotify on the parent directory, so it works before the log
// file exists and across rotation by rename. Notifications are coalesced into
// a one-slot channel; the receiver re-reads the tail on each signal.
//
// # Error Handling
//
// Read returns nil, nil for non-existent files (graceful degradation).
// Other errors (permission denied, I/O errors) are returned wrapped.
// Parse never fails. Watch fails only when the directory cannot be watched.
package logtail
