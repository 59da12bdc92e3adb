// Package widget drives the HistoQC widget lifecycle for one folder: mount
// the markup, show existing results, trigger a run, stream its log, and
// rebuild the results table when the run ends.
package widget

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/five82/histoqcview/internal/girder"
	"github.com/five82/histoqcview/internal/job"
	"github.com/five82/histoqcview/internal/render"
)

// ErrBusy is returned by Trigger while a run is still in flight.
var ErrBusy = errors.New("histoqc run already in progress")

// Host receives the widget's fixed markup block once, on Init.
type Host interface {
	Inject(markup template.HTML)
}

// Button is the trigger control.
type Button interface {
	Show()
	Hide()
}

// StatusArea displays the job log.
type StatusArea interface {
	Show()
	Hide()
	SetText(text string)
	ScrollToBottom()
}

// TableArea displays the results table.
type TableArea interface {
	Show()
	Hide()
	SetContent(table render.Table, html template.HTML)
}

// ErrorSink surfaces failures to the operator. A nil error clears the state.
type ErrorSink interface {
	ReportError(err error)
}

// Mount bundles the display elements the controller drives. Errors is
// optional; the others are required.
type Mount struct {
	Host   Host
	Button Button
	Status StatusArea
	Table  TableArea
	Errors ErrorSink
}

func (m Mount) validate() error {
	if m.Host == nil || m.Button == nil || m.Status == nil || m.Table == nil {
		return errors.New("widget mount is incomplete")
	}
	return nil
}

// Controller owns one widget session.
type Controller struct {
	api      girder.API
	watcher  *job.Watcher
	folderID string
	mount    Mount
	logger   *slog.Logger

	mu    sync.Mutex
	busy  bool
	task  *job.Task
	table render.Table
}

// New builds a Controller for folderID.
func New(api girder.API, watcher *job.Watcher, folderID string, mount Mount, logger *slog.Logger) (*Controller, error) {
	if api == nil {
		return nil, errors.New("widget requires an api client")
	}
	if watcher == nil {
		return nil, errors.New("widget requires a job watcher")
	}
	if folderID == "" {
		return nil, errors.New("widget requires a folder id")
	}
	if err := mount.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		api:      api,
		watcher:  watcher,
		folderID: folderID,
		mount:    mount,
		logger:   logger.With("component", "widget", "folder_id", folderID, "session_id", uuid.NewString()),
	}, nil
}

// FolderID returns the folder this widget renders.
func (c *Controller) FolderID() string {
	return c.folderID
}

// Busy reports whether a run is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Table returns the most recently rendered results table.
func (c *Controller) Table() render.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table
}

// Markup returns the fixed widget block injected on Init.
func (c *Controller) Markup() template.HTML {
	return render.WidgetBlock(render.InitialWidgetView())
}

// Init injects the widget markup and loads any results already stored in
// the folder's histoqc_outputs subfolder.
func (c *Controller) Init(ctx context.Context) error {
	c.mount.Host.Inject(c.Markup())
	return c.Refresh(ctx)
}

// Refresh reloads the results table without touching the rest of the
// widget. A missing outputs folder renders the no-outputs message.
func (c *Controller) Refresh(ctx context.Context) error {
	outFolder, err := c.api.FindOutputsFolder(ctx, c.folderID)
	if err != nil {
		if errors.Is(err, girder.ErrNoOutputsFolder) {
			c.logger.Info("no histoqc outputs folder yet", "error", err)
			c.setTable(render.Table{})
			c.reportError(nil)
			return nil
		}
		c.fail("locate outputs folder", err)
		return err
	}
	c.logger.Debug("found outputs folder", "outputs_folder_id", outFolder.ID)
	if err := c.refreshTable(ctx); err != nil {
		return err
	}
	c.reportError(nil)
	return nil
}

// Trigger starts a HistoQC run and begins polling it. The returned task
// finishes after the table has been rebuilt.
func (c *Controller) Trigger(ctx context.Context) (*job.Task, error) {
	c.mu.Lock()
	if c.busy || c.watcher.Busy() {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	c.mu.Unlock()

	submitted, err := c.api.TriggerJob(ctx, c.folderID)
	if err != nil {
		c.setBusy(false)
		c.fail("trigger job", err)
		return nil, err
	}
	c.logger.Info("histoqc job started", "job_id", submitted.ID)
	c.reportError(nil)

	c.mount.Button.Hide()
	c.mount.Status.SetText(render.StartedText(submitted.ID))
	c.mount.Status.Show()
	c.mount.Table.Hide()

	task, err := c.watcher.Start(ctx, submitted.ID, job.HandlerFuncs{
		Updated:  c.jobUpdated,
		Finished: func(j girder.Job) { c.jobFinished(ctx, j) },
	})
	if err != nil {
		c.setBusy(false)
		c.mount.Button.Show()
		c.fail("watch job", err)
		return nil, err
	}

	c.mu.Lock()
	c.task = task
	c.mu.Unlock()
	go c.release(task)
	return task, nil
}

// release waits for task to end. A task that stopped before the job reached
// a terminal status never reaches jobFinished, so the previous table and the
// trigger are restored here instead.
func (c *Controller) release(task *job.Task) {
	<-task.Done()
	if task.State() != job.StateTerminal {
		c.logger.Info("histoqc job watch stopped", "job_id", task.JobID(), "state", task.State().String())
		c.mount.Table.Show()
		c.mount.Button.Show()
		c.setBusy(false)
	}
	c.mu.Lock()
	if c.task == task {
		c.task = nil
	}
	c.mu.Unlock()
}

// Close stops any active poll. The trigger becomes available again once
// the poll has wound down.
func (c *Controller) Close() {
	c.mu.Lock()
	task := c.task
	c.mu.Unlock()
	if task != nil {
		task.Cancel()
	}
}

func (c *Controller) jobUpdated(j girder.Job) {
	if len(j.Log) > 0 {
		c.mount.Status.SetText(render.StatusText(j.Log))
	}
	c.mount.Status.ScrollToBottom()
}

func (c *Controller) jobFinished(ctx context.Context, j girder.Job) {
	c.logger.Info("histoqc job finished", "job_id", j.ID, "status", j.Status.String(), "log_lines", len(j.Log))
	c.mount.Table.Show()
	_ = c.refreshTable(ctx)
	c.mount.Button.Show()
	c.setBusy(false)
}

func (c *Controller) refreshTable(ctx context.Context) error {
	outputs, err := c.api.FetchOutputs(ctx, c.folderID)
	if err != nil {
		c.fail("fetch outputs", err)
		return err
	}
	table := render.BuildTable(outputs.Individual)
	if !table.Aligned() {
		c.logger.Warn("output records expose differing artifact types; columns will not line up")
	}
	for _, h := range table.Headers[min(1, len(table.Headers)):] {
		if !girder.KnownArtifactType(h) {
			c.logger.Warn("unknown artifact type", "type", h)
		}
	}
	c.setTable(table)
	c.logger.Debug("results table rendered", "rows", len(table.Rows), "columns", len(table.Headers))
	return nil
}

func (c *Controller) setTable(table render.Table) {
	c.mu.Lock()
	c.table = table
	c.mu.Unlock()
	c.mount.Table.SetContent(table, render.HTML(table, c.api))
}

func (c *Controller) setBusy(busy bool) {
	c.mu.Lock()
	c.busy = busy
	c.mu.Unlock()
}

func (c *Controller) fail(op string, err error) {
	attrs := []any{"op", op, "error", err}
	if code := girder.StatusCode(err); code != 0 {
		attrs = append(attrs, "status", code)
	}
	if girder.IsUnauthorized(err) {
		attrs = append(attrs, "hint", "girder token missing or expired")
	}
	c.logger.Error("histoqc widget request failed", attrs...)
	c.reportError(err)
}

func (c *Controller) reportError(err error) {
	if c.mount.Errors != nil {
		c.mount.Errors.ReportError(err)
	}
}
