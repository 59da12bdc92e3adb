package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/histoqcview/internal/job"
	"github.com/five82/histoqcview/internal/prefs"
	"github.com/five82/histoqcview/internal/state"
	"github.com/five82/histoqcview/internal/widget"
)

// Controller is the widget session the UI drives. *widget.Controller
// implements it.
type Controller interface {
	Init(ctx context.Context) error
	Refresh(ctx context.Context) error
	Trigger(ctx context.Context) (*job.Task, error)
	Busy() bool
	FolderID() string
}

// Options configures the UI.
type Options struct {
	Context         context.Context
	Widget          Controller
	Store           *state.Store
	APIRoot         string
	LogPath         string
	PollTick        time.Duration
	ThemeName       string
	PrefsPath       string
	ShowDiagnostics bool
	Logger          *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	widget    Controller
	store     *state.Store
	apiRoot   string
	logPath   string
	prefsPath string
	pollTick  time.Duration
	logger    *slog.Logger
	keys      keyMap

	// UI state
	theme  Theme
	width  int
	height int
	ready  bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time
	busy        bool
	jobID       string
	notice      string
	noticeErr   bool

	// Status pane
	statusViewport viewport.Model

	// Diagnostics pane
	diag diagnosticsState

	// Help overlay
	showHelp bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return Model{
		ctx:       ctx,
		widget:    opts.Widget,
		store:     opts.Store,
		apiRoot:   opts.APIRoot,
		logPath:   opts.LogPath,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		logger:    logger.With("component", "ui"),
		keys:      DefaultKeyMap(),
		theme:     GetTheme(themeName),
		diag:      diagnosticsState{visible: opts.ShowDiagnostics},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.widget != nil {
		cmds = append(cmds, initWidgetCmd(m.ctx, m.widget))
	}
	if m.diag.visible {
		cmds = append(cmds, m.startDiagnostics()...)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.statusViewport = viewport.New(m.width-4, StatusPaneMinHeight)
		}
		m.ready = true
		m.layoutStatusViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case widgetReadyMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Could not load results: %v", msg.err), true)
		}
		return m, m.fetchSnapshot()

	case triggerMsg:
		return m.handleTrigger(msg)

	case taskDoneMsg:
		m.busy = false
		if msg.state == job.StateTerminal {
			m.setNotice(fmt.Sprintf("HistoQC job %s finished", msg.jobID), false)
		} else {
			m.setNotice(fmt.Sprintf("Stopped watching job %s (%s)", msg.jobID, msg.state), true)
		}
		return m, m.fetchSnapshot()

	case logChangedMsg:
		return m, tea.Batch(readLogsCmd(m.logPath), waitLogChangeCmd(m.diag.changes))

	case logWatchMsg:
		m.diag.changes = msg.changes
		if msg.err != nil {
			m.diag.err = msg.err
			return m, nil
		}
		return m, waitLogChangeCmd(m.diag.changes)

	case logLinesMsg:
		m.diag.entries = msg.entries
		m.diag.err = msg.err
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name := m.theme.Name
		if _, err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
			m.logger.Warn("save theme preference", "error", err)
		}
		return m, nil

	case key.Matches(msg, m.keys.Trigger):
		if m.widget == nil {
			return m, nil
		}
		if m.busy {
			m.setNotice("HistoQC is already running", true)
			return m, nil
		}
		m.busy = true
		m.setNotice("Starting HistoQC...", false)
		return m, triggerCmd(m.ctx, m.widget)

	case key.Matches(msg, m.keys.Reload):
		if m.widget == nil || m.busy {
			return m, nil
		}
		m.setNotice("Reloading results...", false)
		return m, refreshCmd(m.ctx, m.widget)

	case key.Matches(msg, m.keys.Diagnostics):
		m.diag.visible = !m.diag.visible
		visible := m.diag.visible
		if _, err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.ShowDiagnostics = visible }); err != nil {
			m.logger.Warn("save diagnostics preference", "error", err)
		}
		m.layoutStatusViewport()
		if visible && m.diag.changes == nil {
			return m, tea.Batch(m.startDiagnostics()...)
		}
		if visible {
			return m, readLogsCmd(m.logPath)
		}
		return m, nil
	}

	return m.handleScrollKey(msg)
}

// handleScrollKey scrolls the status viewport.
func (m Model) handleScrollKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.statusViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.statusViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Top):
		m.statusViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.statusViewport.GotoBottom()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.statusViewport.HalfPageUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.statusViewport.HalfPageDown()
	}
	return m, nil
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.widget != nil && !m.busy && m.widget.Busy() {
		m.busy = true
	}
	if cmd := m.fetchSnapshot(); cmd != nil {
		cmds = append(cmds, cmd)
	}

	// Schedule next tick
	cmds = append(cmds, tickCmd(m.pollTick))

	return m, tea.Batch(cmds...)
}

func (m Model) handleTrigger(msg triggerMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.busy = errors.Is(msg.err, widget.ErrBusy)
		m.setNotice(fmt.Sprintf("Could not start HistoQC: %v", msg.err), true)
		return m, m.fetchSnapshot()
	}
	m.jobID = msg.task.JobID()
	m.setNotice(fmt.Sprintf("HistoQC job %s started", m.jobID), false)
	return m, tea.Batch(m.fetchSnapshot(), waitTaskCmd(m.ctx, msg.task))
}

// applySnapshot stores snap and refreshes the status viewport when the
// widget state changed.
func (m *Model) applySnapshot(snap state.Snapshot) {
	changed := snap.Revision != m.snapshot.Revision
	m.snapshot = snap
	m.lastUpdated = time.Now()
	if !changed {
		return
	}
	m.statusViewport.SetContent(formatStatusText(snap.StatusText, m.statusViewport.Width))
	if m.store != nil && m.store.ConsumeScroll() {
		m.statusViewport.GotoBottom()
	}
	m.layoutStatusViewport()
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m Model) fetchSnapshot() tea.Cmd {
	if m.store == nil {
		return nil
	}
	return fetchSnapshotCmd(m.store)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Widget body
	b.WriteString(m.renderWidget())

	if m.diag.visible {
		b.WriteString("\n")
		b.WriteString(m.renderDiagnostics())
	}

	return b.String()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type widgetReadyMsg struct{ err error }

type triggerMsg struct {
	task *job.Task
	err  error
}

type taskDoneMsg struct {
	jobID string
	state job.State
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func initWidgetCmd(ctx context.Context, w Controller) tea.Cmd {
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		return widgetReadyMsg{err: w.Init(reqCtx)}
	}
}

func refreshCmd(ctx context.Context, w Controller) tea.Cmd {
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		return widgetReadyMsg{err: w.Refresh(reqCtx)}
	}
}

// triggerCmd starts a run. The poll task outlives the command, so it gets
// the program context rather than a request timeout.
func triggerCmd(ctx context.Context, w Controller) tea.Cmd {
	return func() tea.Msg {
		task, err := w.Trigger(ctx)
		return triggerMsg{task: task, err: err}
	}
}

func waitTaskCmd(ctx context.Context, task *job.Task) tea.Cmd {
	return func() tea.Msg {
		st, _ := task.Wait(ctx)
		return taskDoneMsg{jobID: task.JobID(), state: st}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
