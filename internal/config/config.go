package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings histoqcview needs to reach Girder.
type Config struct {
	APIRoot      string
	TokenFile    string
	TokenEnv     string
	PollInterval time.Duration
	LogFile      string
	LogLevel     slog.Level
}

const (
	defaultConfigPath = "~/.config/histoqcview/config.toml"
	defaultAPIRoot    = "http://127.0.0.1:8080/api/v1"
	defaultTokenFile  = "~/.config/histoqcview/token"
	defaultTokenEnv   = "GIRDER_TOKEN"
	defaultPoll       = 2 * time.Second
	defaultLogFile    = "~/.local/state/histoqcview/histoqcview.log"

	// EnvAPIRoot overrides api_root.
	EnvAPIRoot = "HISTOQC_API_ROOT"
	// EnvLogLevel overrides log_level.
	EnvLogLevel = "HISTOQC_LOG_LEVEL"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIRoot:      defaultAPIRoot,
		TokenFile:    mustExpand(defaultTokenFile),
		TokenEnv:     defaultTokenEnv,
		PollInterval: defaultPoll,
		LogFile:      mustExpand(defaultLogFile),
		LogLevel:     slog.LevelInfo,
	}
}

// Load locates and parses the histoqcview config, falling back to defaults
// when missing. Environment overrides apply in both cases.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnv(cfg)
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIRoot     string `toml:"api_root"`
		TokenFile   string `toml:"token_file"`
		TokenEnv    string `toml:"token_env"`
		PollSeconds int    `toml:"poll_seconds"`
		LogFile     string `toml:"log_file"`
		LogLevel    string `toml:"log_level"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIRoot); v != "" {
		cfg.APIRoot = v
	}
	if v := strings.TrimSpace(raw.TokenFile); v != "" {
		cfg.TokenFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.TokenEnv); v != "" {
		cfg.TokenEnv = v
	}
	switch {
	case raw.PollSeconds < 0:
		return Config{}, fmt.Errorf("parse config: poll_seconds must be positive, got %d", raw.PollSeconds)
	case raw.PollSeconds > 0:
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		level, err := parseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		cfg.LogLevel = level
	}

	return applyEnv(cfg)
}

// Path returns the config file Load would read for path.
func Path(path string) string {
	resolved, err := resolvePath(path)
	if err != nil {
		return path
	}
	return resolved
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIRoot)); v != "" {
		cfg.APIRoot = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		level, err := parseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

func parseLevel(v string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", v)
	}
	return level, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
