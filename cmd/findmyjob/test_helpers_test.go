package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"findmyjob/internal/config"
	"findmyjob/internal/testsupport"
)

// cliEnv is an isolated HOME with a config file the CLI loads via --config.
type cliEnv struct {
	t          *testing.T
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliEnv {
	t.Helper()

	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)
	t.Setenv(config.EnvBackendExecutable, "")

	env := &cliEnv{
		t:          t,
		cfg:        testsupport.NewConfig(t, opts...),
		configPath: filepath.Join(home, ".config", "findmyjob", "config.toml"),
	}
	env.cfg.Logging.Level = "error"
	env.save()
	return env
}

// save writes the current cfg back to configPath.
func (e *cliEnv) save() {
	e.t.Helper()
	encoded, err := e.cfg.Encode()
	if err != nil {
		e.t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(e.configPath), 0o755); err != nil {
		e.t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(e.configPath, []byte(encoded), 0o644); err != nil {
		e.t.Fatalf("write config: %v", err)
	}
}

// runCLI executes the root command in-process and returns captured stdout and stderr.
func runCLI(t *testing.T, deps shellDeps, configPath string, args ...string) (string, string, error) {
	t.Helper()
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	var stdout, stderr bytes.Buffer
	root := newRootCommandWithDeps(deps)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q, got:\n%s", substr, output)
	}
}
