package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	if c.History.KeepRuns < 0 {
		return errors.New("history.keep_runs must not be negative")
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.Executable == "" {
		return fmt.Errorf("backend.executable must be set (or export %s)", EnvBackendExecutable)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Bind == "" {
		return nil
	}
	host, _, err := net.SplitHostPort(c.Metrics.Bind)
	if err != nil {
		return fmt.Errorf("metrics.bind: %w", err)
	}
	if ip := net.ParseIP(strings.Trim(host, "[]")); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return fmt.Errorf("metrics.bind must be a loopback address, got %q", c.Metrics.Bind)
	}
	return nil
}
