package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"findmyjob/internal/config"
	"findmyjob/internal/logging"
	"findmyjob/internal/metrics"
	"findmyjob/internal/notify"
	"findmyjob/internal/runlog"
	"findmyjob/internal/sidecar"
)

const shutdownWait = 5 * time.Second

func newRunCommand(ctx *commandContext) *cobra.Command {
	var closeOnStdinEOF bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start or reuse the backend and supervise it until the shell exits",
		Long: "Start or reuse the backend and supervise it until the shell exits.\n\n" +
			"Backend signals are written to stdout as JSON lines. The shell stops on\n" +
			"SIGINT or SIGTERM, or when stdin closes with --close-on-stdin-eof.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, ctx, closeOnStdinEOF)
		},
	}
	cmd.Flags().BoolVar(&closeOnStdinEOF, "close-on-stdin-eof", false, "Shut down when stdin reaches EOF (host window closed)")
	return cmd
}

func runShell(cmd *cobra.Command, ctx *commandContext, closeOnStdinEOF bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runID := uuid.NewString()
	logger, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	journal, closeJournal := openJournal(signalCtx, cfg, runID, logger)
	defer closeJournal()

	var observer sidecar.Observer
	if cfg.Metrics.Bind != "" {
		collector := metrics.NewCollector()
		observer = collector
		startMetrics(signalCtx, cfg.Metrics.Bind, collector, logger)
	}

	tracker := notify.NewTracker()
	emitter := notify.Fanout{
		notify.NewJSONEmitter(cmd.OutOrStdout(), logger),
		notify.NewLogEmitter(logger),
		tracker,
	}

	sup := sidecar.New(sidecar.Options{
		Executable:   cfg.Backend.Executable,
		Launcher:     ctx.launcher(cfg),
		Prober:       ctx.prober(),
		Ports:        ctx.ports(),
		Emitter:      emitter,
		Logger:       logger,
		Observer:     observer,
		Journal:      journal,
		LockPath:     cfg.OwnerLockPath(),
		PollInterval: ctx.deps.pollInterval,
		ReadyTimeout: ctx.deps.readyTimeout,
	})

	logger.Info("findmyjob shell starting",
		logging.String("executable", cfg.Backend.Executable),
		logging.String("data_dir", cfg.Paths.DataDir),
	)
	outcome, err := sup.Start(signalCtx)
	if err != nil {
		sup.Shutdown()
		return fmt.Errorf("start backend: %w", err)
	}
	logger.Info("backend decision made", logging.String("outcome", string(outcome)))

	stdinClosed := make(chan struct{})
	if closeOnStdinEOF {
		go func() {
			_, _ = io.Copy(io.Discard, ctx.stdin(cmd))
			close(stdinClosed)
		}()
	}

	select {
	case <-signalCtx.Done():
		logger.Info("shutdown requested by signal")
	case <-stdinClosed:
		logger.Info("host closed stdin, shutting down")
	}

	sup.Shutdown()
	waitForTasks(sup, logger)

	status, message := tracker.Status()
	logger.Info("findmyjob shell exiting",
		logging.String("backend_status", string(status)),
		logging.String("last_error", message),
	)
	return nil
}

func openJournal(ctx context.Context, cfg *config.Config, runID string, logger *slog.Logger) (sidecar.Journal, func()) {
	noop := func() {}
	if !cfg.History.Enabled {
		return nil, noop
	}
	store, err := runlog.Open(cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "run journal unavailable", "journal_open",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not be recorded"),
		)
		return nil, noop
	}
	if pruned, err := store.Prune(ctx, cfg.History.KeepRuns); err != nil {
		logger.Warn("run journal prune failed", logging.Error(err))
	} else if pruned > 0 {
		logger.Debug("pruned run journal", logging.Int64("removed", pruned))
	}
	journal, err := store.Begin(ctx, runID)
	if err != nil {
		logging.WarnWithContext(logger, "run journal unavailable", "journal_begin",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not be recorded"),
		)
		_ = store.Close()
		return nil, noop
	}
	return journal, func() {
		if err := store.Close(); err != nil {
			logger.Warn("close run journal", logging.Error(err))
		}
	}
}

func startMetrics(ctx context.Context, bind string, collector *metrics.Collector, logger *slog.Logger) {
	srv, err := metrics.Listen(bind, collector, logger)
	if err != nil {
		logging.WarnWithContext(logger, "metrics endpoint unavailable", "metrics_listen",
			logging.Error(err),
			logging.String(logging.FieldImpact, "metrics will not be exported"),
		)
		return
	}
	go func() {
		if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("metrics endpoint stopped", logging.Error(err))
		}
	}()
}

func waitForTasks(sup *sidecar.Supervisor, logger *slog.Logger) {
	done := make(chan struct{})
	go func() {
		sup.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownWait):
		logger.Warn("backend output still open after shutdown", logging.Duration("waited", shutdownWait))
	}
}
