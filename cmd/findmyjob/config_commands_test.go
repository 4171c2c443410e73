package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, shellDeps{}, env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.cfg.Backend.Executable)
	requireContains(t, out, "keep_runs")
	requireContains(t, out, "# source: "+env.configPath)

	missing := filepath.Join(t.TempDir(), "absent.toml")
	out, _, err = runCLI(t, shellDeps{}, missing, "config", "show")
	if err != nil {
		t.Fatalf("config show with missing file: %v", err)
	}
	requireContains(t, out, "built-in defaults")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, shellDeps{}, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, shellDeps{}, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, shellDeps{}, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}
