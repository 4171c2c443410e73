package config

import (
	"fmt"
	"os"
	"strings"
)

// EnvBackendExecutable overrides backend.executable when set.
const EnvBackendExecutable = "FINDMYJOB_BACKEND"

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBackend(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeHistory()
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() error {
	if value, ok := os.LookupEnv(EnvBackendExecutable); ok && strings.TrimSpace(value) != "" {
		c.Backend.Executable = value
	}
	c.Backend.Executable = strings.TrimSpace(c.Backend.Executable)
	if strings.HasPrefix(c.Backend.Executable, "~") {
		expanded, err := ExpandPath(c.Backend.Executable)
		if err != nil {
			return fmt.Errorf("backend.executable: %w", err)
		}
		c.Backend.Executable = expanded
	}
	if strings.TrimSpace(c.Backend.WorkDir) != "" {
		expanded, err := ExpandPath(strings.TrimSpace(c.Backend.WorkDir))
		if err != nil {
			return fmt.Errorf("backend.work_dir: %w", err)
		}
		c.Backend.WorkDir = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json", "auto":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeHistory() {
	if c.History.KeepRuns == 0 {
		c.History.KeepRuns = defaultHistoryKeepRuns
	}
}
