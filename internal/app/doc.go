// Package app is the composition root for every histoqcview command.
//
// Each command opens a session: load config (config.Load), set up the slog
// logger (logging.Setup), and build the Girder client with a token chain of
// the configured environment variable and then the token file. The folder id
// comes from --folder or, when omitted, the last folder used (prefs).
//
// Commands:
//
//   - Watch: state.Store backs the widget mount, ui.Run draws it, and a
//     background refresher reloads the results table while no run is active.
//   - Run: the same widget headless. Job log lines are echoed to stderr, and
//     the final widget page is written by report.Write.
//   - Export: export.Service downloads the grouped results TSV and writes it
//     as XLSX or YAML.
//
// Config and client errors are returned before anything starts. Failures
// after that are logged at the point of failure; the refresher backs off
// exponentially (capped at two minutes) instead of giving up.
package app
