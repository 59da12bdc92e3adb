// Package state provides thread-safe state management for the HistoQC widget.
//
// # Overview
//
// The widget controller drives display elements (button, status area, results
// table) from the job poller's goroutine while a front end renders them from
// its own loop. Store sits between the two: the controller writes through the
// element handles and the front end reads immutable snapshots.
//
//	Producer (widget.Controller):    Consumer (TUI / report):
//	┌──────────────────────┐        ┌──────────────────────┐
//	│ Button().Hide()      │        │                      │
//	│ Status().SetText()   │───────→│ store.Snapshot()     │
//	│ Table().SetContent() │ (mutex)│      ↓               │
//	│ ReportError(err)     │        │ render               │
//	└──────────────────────┘        └──────────────────────┘
//
// # Element Handles
//
// Button, Status and Table each satisfy the matching widget mount interface.
// Store itself satisfies the host and error sink interfaces, so a single
// Store backs an entire widget.Mount:
//
//	store := &state.Store{}
//	mount := widget.Mount{
//		Host:   store,
//		Button: store.Button(),
//		Status: store.Status(),
//		Table:  store.Table(),
//		Errors: store,
//	}
//
// # Snapshot Semantics
//
// Every write bumps Revision and LastUpdated, so readers can skip redraws
// when nothing changed. Snapshot returns copies of the table slices and
// wraps LastError in a fresh value.
//
// ScrollToBottom is recorded as a pending request rather than a position.
// The front end calls ConsumeScroll after applying new status text.
//
// # Error State
//
// ReportError(err) increments ConsecutiveFailures; ReportError(nil) clears
// it. IsOffline reports two or more failures in a row, which the UI shows
// as an offline banner.
package state
