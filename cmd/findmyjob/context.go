package main

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"findmyjob/internal/config"
	"findmyjob/internal/health"
	"findmyjob/internal/portcheck"
	"findmyjob/internal/sidecar"
)

// shellDeps replaces the collaborators commands talk to. Zero values select
// the real health endpoint, port, and process launcher.
type shellDeps struct {
	prober       health.Prober
	ports        portcheck.Checker
	launcher     sidecar.Launcher
	stdin        io.Reader
	pollInterval time.Duration
	readyTimeout time.Duration
}

type commandContext struct {
	configFlag *string
	verbose    *bool
	deps       shellDeps

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string, verbose *bool, deps shellDeps) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
		deps:       deps,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		c.config = cfg
		c.configPath, c.configExists = resolved, exists
	})
	return c.config, c.configErr
}

func (c *commandContext) prober() health.Prober {
	if c.deps.prober != nil {
		return c.deps.prober
	}
	return health.NewHTTPProber(health.DefaultURL)
}

func (c *commandContext) ports() portcheck.Checker {
	if c.deps.ports != nil {
		return c.deps.ports
	}
	return portcheck.Addr(portcheck.DefaultAddr)
}

func (c *commandContext) launcher(cfg *config.Config) sidecar.Launcher {
	if c.deps.launcher != nil {
		return c.deps.launcher
	}
	return &sidecar.ExecLauncher{
		Args: cfg.Backend.Args,
		Dir:  cfg.Backend.WorkDir,
	}
}

func (c *commandContext) stdin(cmd *cobra.Command) io.Reader {
	if c.deps.stdin != nil {
		return c.deps.stdin
	}
	return cmd.InOrStdin()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
