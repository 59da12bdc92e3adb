// Package config handles loading and parsing the histoqcview configuration file.
//
// # Overview
//
// This package reads a small TOML file describing where Girder lives, how to
// obtain a Girder token, how often to poll jobs, and where diagnostics go.
// Every field is optional.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/histoqcview/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. Apply environment overrides
//
// # Default Values
//
//   - Config file: ~/.config/histoqcview/config.toml
//   - API root: http://127.0.0.1:8080/api/v1
//   - Token file: ~/.config/histoqcview/token
//   - Token env var: GIRDER_TOKEN
//   - Poll interval: 2 seconds
//   - Log file: ~/.local/state/histoqcview/histoqcview.log
//   - Log level: info
//
// # TOML Format
//
//	api_root = "https://girder.example.com/api/v1"
//	token_file = "~/.config/histoqcview/token"
//	token_env = "GIRDER_TOKEN"
//	poll_seconds = 2
//	log_file = "~/.local/state/histoqcview/histoqcview.log"
//	log_level = "debug"
//
// log_level accepts the names understood by slog.Level (debug, info, warn,
// error, optionally with an offset such as "info+2"). poll_seconds must not
// be negative; zero means the default.
//
// # Environment Overrides
//
//   - HISTOQC_API_ROOT replaces api_root
//   - HISTOQC_LOG_LEVEL replaces log_level
//
// Overrides apply even when the file is missing.
//
// # Path Expansion
//
// token_file and log_file support the same formats as the config path:
//
//   - Absolute paths: Used as-is ("/var/log/histoqcview.log")
//   - Tilde paths: Expanded to home directory ("~/.config/histoqcview")
//   - Relative paths: Converted to absolute based on current directory
//
// # Error Handling
//
// Load returns errors for:
//   - Unreadable config files (permissions)
//   - Invalid TOML syntax ("parse config: ...")
//   - Out-of-range values ("parse config: poll_seconds must be positive")
//   - Unknown log levels, from the file or the environment
//
// A missing config file is NOT an error.
package config
