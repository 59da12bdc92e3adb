package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/histoqcview/internal/app"
	"github.com/five82/histoqcview/internal/export"
)

// commands binds the shared flags for one invocation. Runners are swappable
// so the command tree can be exercised without a Girder server.
type commands struct {
	opts        app.Options
	pollSeconds int
	format      string
	reportOut   string
	exportOut   string

	watch  func(cmd *cobra.Command, opts app.Options) error
	run    func(cmd *cobra.Command, opts app.Options) error
	export func(cmd *cobra.Command, opts app.Options) error
}

func newRootCmd() *cobra.Command {
	return newCommands().root()
}

func newCommands() *commands {
	return &commands{
		watch: func(cmd *cobra.Command, opts app.Options) error {
			return app.Watch(cmd.Context(), opts)
		},
		run: func(cmd *cobra.Command, opts app.Options) error {
			return app.Run(cmd.Context(), opts)
		},
		export: func(cmd *cobra.Command, opts app.Options) error {
			return app.Export(cmd.Context(), opts)
		},
	}
}

func (c *commands) root() *cobra.Command {
	root := &cobra.Command{
		Use:   "histoqcview",
		Short: "Run HistoQC on a Girder folder and browse its outputs",
		Long: `histoqcview triggers HistoQC quality control jobs on a Girder folder of
whole-slide images, streams the job log while it runs, and shows the
per-image artifact table once it finishes.

Running without a subcommand starts the interactive terminal widget.`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.watch(cmd, c.options(cmd))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.ConfigPath, "config", "", "config file (default ~/.config/histoqcview/config.toml)")
	flags.StringVar(&c.opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/histoqcview/prefs.toml)")
	flags.StringVarP(&c.opts.FolderID, "folder", "f", "", "Girder folder id (defaults to the last folder used)")
	flags.IntVar(&c.pollSeconds, "poll", 0, "job poll interval in seconds (overrides config)")

	root.AddCommand(c.watchCmd(), c.runCmd(), c.exportCmd(), versionCmd())
	return root
}

func (c *commands) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the interactive HistoQC widget",
		Long: `Open the interactive HistoQC widget for a folder.

Keys: r run HistoQC, R reload results, d diagnostics, T theme, h help, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.watch(cmd, c.options(cmd))
		},
	}
	cmd.Flags().DurationVar(&c.opts.RefreshEvery, "refresh", 0, "results reload interval while idle (default 15s)")
	return cmd
}

func (c *commands) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run HistoQC headlessly and write the widget page as HTML",
		Long: `Run HistoQC headlessly.

Triggers a job, echoes new job log lines to stderr while polling, and writes
the finished widget page as a standalone HTML document.

Examples:
  histoqcview run --folder 5f1c0ffee --out report.html
  histoqcview run -f 5f1c0ffee > report.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd)
			opts.Out = c.reportOut
			return c.run(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&c.reportOut, "out", "o", "-", "report path (- for stdout)")
	cmd.Flags().StringVar(&c.opts.Title, "title", "", "HTML page title (default HistoQC)")
	return cmd
}

func (c *commands) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the folder's grouped HistoQC results",
		Long: `Download the grouped HistoQC results file of a folder and convert it.

Examples:
  histoqcview export --folder 5f1c0ffee
  histoqcview export -f 5f1c0ffee --format yaml --out -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(c.format)
			if err != nil {
				return err
			}
			opts := c.options(cmd)
			opts.Format = format
			opts.Out = c.exportOut
			return c.export(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&c.format, "format", "xlsx", "output format: xlsx or yaml")
	cmd.Flags().StringVarP(&c.exportOut, "out", "o", "", "output path (default results.<format>, - for stdout)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "histoqcview %s\n", app.Version)
		},
	}
}

// options resolves the flag-bound values for cmd.
func (c *commands) options(cmd *cobra.Command) app.Options {
	opts := c.opts
	if c.pollSeconds > 0 {
		opts.PollEvery = time.Duration(c.pollSeconds) * time.Second
	}
	opts.Stdout = cmd.OutOrStdout()
	opts.Stderr = cmd.ErrOrStderr()
	return opts
}
