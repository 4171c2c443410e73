package testsupport

import (
	"path/filepath"
	"testing"

	"findmyjob/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Metrics stay disabled and history stays enabled unless options say otherwise.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "data", "logs")
	cfgVal.Backend.Executable = filepath.Join(base, "bin", "findmyjob-backend")
	cfgVal.Metrics.Bind = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithBackendExecutable points the config at an existing executable.
func WithBackendExecutable(path string, args ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.Executable = path
		b.cfg.Backend.Args = args
	}
}

// WithStubbedBackend writes a shell script as the backend executable.
func WithStubbedBackend(body string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.Executable = WriteScript(b.t, filepath.Join(b.baseDir, "bin"), "findmyjob-backend", body)
	}
}

// WithHistory toggles the run journal.
func WithHistory(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = enabled
	}
}

// WithMetricsBind enables the metrics endpoint.
func WithMetricsBind(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Bind = addr
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
