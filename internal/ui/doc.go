// Package ui provides a terminal front end for the HistoQC widget.
//
// The UI is a Bubble Tea program. It mirrors the HTML widget block in a
// terminal: a run button, a scrolling status pane fed by the job log, and a
// results table listing each source image with its artifact item ids.
//
// The model never talks to Girder directly. Actions go through a Controller
// (normally *widget.Controller), which writes its display updates into a
// state.Store. A periodic tick pulls a Snapshot from the store and redraws
// when its revision changes.
//
// # Key Bindings
//
//   - r: Run HistoQC on the folder
//   - R: Reload the results table
//   - d: Toggle the diagnostics pane (tails the JSON log file)
//   - T: Cycle theme
//   - j/k, g/G, ctrl+u/ctrl+d: Scroll the status pane
//   - h or ?: Help
//   - q or Ctrl+C: Exit
//
// Theme and diagnostics visibility are persisted through the prefs package.
package ui
