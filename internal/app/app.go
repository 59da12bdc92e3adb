package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/histoqcview/internal/config"
	"github.com/five82/histoqcview/internal/export"
	"github.com/five82/histoqcview/internal/girder"
	"github.com/five82/histoqcview/internal/job"
	"github.com/five82/histoqcview/internal/logging"
	"github.com/five82/histoqcview/internal/prefs"
	"github.com/five82/histoqcview/internal/report"
	"github.com/five82/histoqcview/internal/state"
	"github.com/five82/histoqcview/internal/ui"
	"github.com/five82/histoqcview/internal/widget"
)

// Version is overridden at build time with -ldflags "-X ...app.Version=...".
var Version = "dev"

// ErrNoFolder is returned when no folder id was given and none is remembered.
var ErrNoFolder = errors.New("no folder id given (use --folder)")

// Options configure every histoqcview command.
type Options struct {
	ConfigPath   string
	PrefsPath    string        // empty uses default ~/.config/histoqcview/prefs.toml
	FolderID     string        // empty uses the last folder opened
	PollEvery    time.Duration // zero uses the config's poll_seconds
	RefreshEvery time.Duration // watch only; zero uses the default

	// Out is the report (run) or export destination; "-" means Stdout.
	Out    string
	Title  string
	Format export.Format

	Stdout io.Writer
	Stderr io.Writer
}

func (o Options) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o Options) stderr() io.Writer {
	if o.Stderr != nil {
		return o.Stderr
	}
	return os.Stderr
}

// session holds what every command needs once config and logging are up.
type session struct {
	cfg       config.Config
	prefs     prefs.Prefs
	prefsPath string
	folderID  string
	logger    *slog.Logger
	closeLog  func() error
	client    *girder.Client
}

// open loads config, sets up logging, and builds the Girder client. Headless
// commands mirror log records to stderr; the TUI must not.
func open(opts Options, headless bool) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	folderID := strings.TrimSpace(opts.FolderID)
	if folderID == "" {
		folderID = userPrefs.LastFolder
	}
	if folderID == "" {
		return nil, ErrNoFolder
	}

	logOpts := logging.Options{File: cfg.LogFile, Level: cfg.LogLevel}
	if headless {
		logOpts.Stderr = opts.stderr()
	}
	// A log file that cannot be opened is not fatal; Setup already fell back.
	logger, closeLog, _ := logging.Setup(logOpts)

	client, err := girder.NewClient(
		cfg.APIRoot,
		girder.ChainTokens{girder.EnvToken(cfg.TokenEnv), girder.FileToken(cfg.TokenFile)},
		girder.WithUserAgent("histoqcview/"+Version),
	)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init girder client: %w", err)
	}

	logger.Debug("session opened",
		"api_root", client.APIRoot(),
		"folder_id", folderID,
		"poll_interval", cfg.PollInterval,
		"config", config.Path(opts.ConfigPath),
	)

	return &session{
		cfg:       cfg,
		prefs:     userPrefs,
		prefsPath: opts.PrefsPath,
		folderID:  folderID,
		logger:    logger,
		closeLog:  closeLog,
		client:    client,
	}, nil
}

func (s *session) close() {
	_ = s.closeLog()
}

// rememberFolder stores the folder id so later commands can omit --folder.
func (s *session) rememberFolder() {
	if s.prefs.LastFolder == s.folderID {
		return
	}
	folderID := s.folderID
	if _, err := prefs.Update(s.prefsPath, func(p *prefs.Prefs) { p.LastFolder = folderID }); err != nil {
		s.logger.Warn("save last folder", "error", err)
	}
}

// newWidget builds a widget controller writing into store. status replaces
// the store's status element when non-nil.
func (s *session) newWidget(store *state.Store, status widget.StatusArea) (*widget.Controller, error) {
	mount := widget.Mount{
		Host:   store,
		Button: store.Button(),
		Status: store.Status(),
		Table:  store.Table(),
		Errors: store,
	}
	if status != nil {
		mount.Status = status
	}
	watcher := job.NewWatcher(s.client, s.cfg.PollInterval, s.logger)
	ctrl, err := widget.New(s.client, watcher, s.folderID, mount, s.logger)
	if err != nil {
		return nil, fmt.Errorf("init widget: %w", err)
	}
	return ctrl, nil
}

// Watch runs the interactive terminal widget until the user exits or ctx is
// cancelled.
func Watch(ctx context.Context, opts Options) error {
	s, err := open(opts, false)
	if err != nil {
		return err
	}
	defer s.close()

	store := &state.Store{}
	ctrl, err := s.newWidget(store, nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()
	s.rememberFolder()

	// Start background refresher
	StartRefresher(ctx, ctrl, opts.RefreshEvery, s.logger)

	uiOpts := ui.Options{
		Context:         ctx,
		Widget:          ctrl,
		Store:           store,
		APIRoot:         s.client.APIRoot(),
		LogPath:         s.cfg.LogFile,
		PollTick:        ui.DefaultUIInterval,
		ThemeName:       s.prefs.Theme,
		PrefsPath:       opts.PrefsPath,
		ShowDiagnostics: s.prefs.ShowDiagnostics,
		Logger:          s.logger,
	}
	return ui.Run(uiOpts)
}

// Run triggers HistoQC headlessly, streams the job log to stderr, waits for
// the job to finish, and writes the widget page to opts.Out.
func Run(ctx context.Context, opts Options) error {
	s, err := open(opts, true)
	if err != nil {
		return err
	}
	defer s.close()

	store := &state.Store{}
	echo := &report.Echo{StatusArea: store.Status(), Out: opts.stderr()}
	ctrl, err := s.newWidget(store, echo)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.Init(ctx); err != nil {
		return fmt.Errorf("load existing results: %w", err)
	}
	s.rememberFolder()

	task, err := ctrl.Trigger(ctx)
	if err != nil {
		return fmt.Errorf("trigger histoqc: %w", err)
	}
	st, err := task.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job %s: %w", task.JobID(), err)
	}
	s.logger.Info("histoqc run complete", "job_id", task.JobID(), "state", st.String(), "polls", task.Polls())

	snap := store.Snapshot()
	if err := report.Write(opts.Out, snap, opts.Title, opts.stdout()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if snap.LastError != nil {
		return fmt.Errorf("job %s finished but results could not be loaded: %w", task.JobID(), snap.LastError)
	}
	return nil
}

// Export downloads the folder's grouped results and writes them to opts.Out
// in opts.Format.
func Export(ctx context.Context, opts Options) error {
	s, err := open(opts, true)
	if err != nil {
		return err
	}
	defer s.close()

	format := opts.Format
	if format == "" {
		format = export.FormatXLSX
	}
	svc := export.NewService(s.client, s.logger)

	out := opts.Out
	if out == "" {
		out = "results." + string(format)
	}
	if out == "-" {
		return svc.Export(ctx, s.folderID, format, opts.stdout())
	}
	return writeFileAtomic(out, func(w io.Writer) error {
		return svc.Export(ctx, s.folderID, format, w)
	})
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place, so a failed export never leaves a partial file.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".histoqc-export-*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
