package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/sdpower/tokenflow-go/internal/config"
)

// defaultRoots resolves the data directories scanned when none are given on
// the command line.
func defaultRoots() []string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return []string{dir}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return []string{"."}
	}

	claudePath := filepath.Join(homeDir, ".claude", "projects")
	if _, err := os.Stat(claudePath); err == nil {
		return []string{claudePath}
	}

	configPath := filepath.Join(homeDir, ".config", "claude", "projects")
	if _, err := os.Stat(configPath); err == nil {
		return []string{configPath}
	}

	return []string{claudePath}
}

// newLogger builds the stderr console logger. Diagnostic mode lowers the
// level to debug for per-line decode events.
func newLogger(diagnostic bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if diagnostic {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// resolveConfig loads the YAML config when a path is given, otherwise the
// embedded defaults. Either way the result is validated before ingestion.
func resolveConfig(path string) (config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

func resolveTimezone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", name, err)
	}
	return loc, nil
}
