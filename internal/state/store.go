package state

import (
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/five82/histoqcview/internal/render"
)

// Snapshot represents the latest widget state available to a front end.
type Snapshot struct {
	Mounted       bool
	ButtonVisible bool
	StatusVisible bool
	TableVisible  bool
	StatusText    string
	ScrollPending bool
	Table         render.Table
	TableHTML     template.HTML
	HasTable      bool

	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed requests
	Revision            uint64
}

// IsOffline returns true when Girder has failed several requests in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// View converts the snapshot into the visible state of the HTML widget block.
func (s Snapshot) View() render.WidgetView {
	v := render.WidgetView{
		ButtonVisible: s.ButtonVisible,
		StatusVisible: s.StatusVisible,
		TableVisible:  s.TableVisible,
		StatusText:    s.StatusText,
		TableHTML:     s.TableHTML,
	}
	if !s.HasTable {
		v.TableHTML = render.InitialWidgetView().TableHTML
	}
	return v
}

// Store coordinates concurrent updates to the snapshot. The zero value starts
// with every element visible, matching a freshly mounted widget.
type Store struct {
	mu       sync.RWMutex
	init     bool
	snapshot Snapshot
}

// Inject marks the widget as mounted and resets element visibility. The
// markup itself is not kept; front ends rebuild the block from the snapshot
// through View.
func (s *Store) Inject(template.HTML) {
	s.update(func(snap *Snapshot) {
		initial := render.InitialWidgetView()
		snap.Mounted = true
		snap.ButtonVisible = initial.ButtonVisible
		snap.StatusVisible = initial.StatusVisible
		snap.TableVisible = initial.TableVisible
	})
}

// ReportError records err for display. A nil err clears the error and the
// failure count.
func (s *Store) ReportError(err error) {
	s.update(func(snap *Snapshot) {
		snap.LastError = err
		if err == nil {
			snap.ConsecutiveFailures = 0
			return
		}
		snap.ConsecutiveFailures++
	})
}

// Button returns a handle that toggles the trigger button.
func (s *Store) Button() *Button { return &Button{s: s} }

// Status returns a handle for the job log area.
func (s *Store) Status() *Status { return &Status{s: s} }

// Table returns a handle for the results table.
func (s *Store) Table() *Table { return &Table{s: s} }

// ConsumeScroll reports whether a scroll to the bottom of the log was
// requested since the last call and clears the request.
func (s *Store) ConsumeScroll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.snapshot.ScrollPending
	s.snapshot.ScrollPending = false
	return pending
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if !s.init {
		initial := render.InitialWidgetView()
		snap.ButtonVisible = initial.ButtonVisible
		snap.StatusVisible = initial.StatusVisible
		snap.TableVisible = initial.TableVisible
	}
	snap.Table = cloneTable(s.snapshot.Table)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.init {
		initial := render.InitialWidgetView()
		s.snapshot.ButtonVisible = initial.ButtonVisible
		s.snapshot.StatusVisible = initial.StatusVisible
		s.snapshot.TableVisible = initial.TableVisible
		s.init = true
	}
	fn(&s.snapshot)
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.Revision++
}

// Button toggles the trigger button's visibility.
type Button struct{ s *Store }

func (b *Button) Show() { b.s.update(func(snap *Snapshot) { snap.ButtonVisible = true }) }
func (b *Button) Hide() { b.s.update(func(snap *Snapshot) { snap.ButtonVisible = false }) }

// Status holds the job log text.
type Status struct{ s *Store }

func (st *Status) Show() { st.s.update(func(snap *Snapshot) { snap.StatusVisible = true }) }
func (st *Status) Hide() { st.s.update(func(snap *Snapshot) { snap.StatusVisible = false }) }

func (st *Status) SetText(text string) {
	st.s.update(func(snap *Snapshot) { snap.StatusText = text })
}

func (st *Status) ScrollToBottom() {
	st.s.update(func(snap *Snapshot) { snap.ScrollPending = true })
}

// Table holds the rendered results table.
type Table struct{ s *Store }

func (t *Table) Show() { t.s.update(func(snap *Snapshot) { snap.TableVisible = true }) }
func (t *Table) Hide() { t.s.update(func(snap *Snapshot) { snap.TableVisible = false }) }

func (t *Table) SetContent(table render.Table, html template.HTML) {
	table = cloneTable(table)
	t.s.update(func(snap *Snapshot) {
		snap.Table = table
		snap.TableHTML = html
		snap.HasTable = true
	})
}

func cloneTable(t render.Table) render.Table {
	out := render.Table{}
	if len(t.Headers) > 0 {
		out.Headers = append([]string(nil), t.Headers...)
	}
	if len(t.Rows) > 0 {
		out.Rows = make([]render.Row, len(t.Rows))
		for i, row := range t.Rows {
			row.Cells = append([]render.Cell(nil), row.Cells...)
			out.Rows[i] = row
		}
	}
	return out
}
