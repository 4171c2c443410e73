package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"findmyjob/internal/preflight"
	"findmyjob/internal/runlog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backend, port, and local environment status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			deps := preflight.Deps{Prober: ctx.prober(), Ports: ctx.ports()}
			if cfg.History.Enabled {
				store, err := runlog.Open(cfg.HistoryPath())
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warn: run history unavailable: %v\n", err)
				} else {
					defer store.Close()
					deps.History = store
				}
			}

			results := preflight.RunAll(cmd.Context(), cfg, deps)
			if asJSON {
				return writeJSON(cmd, results)
			}

			out := cmd.OutOrStdout()
			report := newStatusReport("FindMyJob", shouldColorize(out))
			for _, result := range results {
				report.addResult(result)
			}
			_, err = report.WriteTo(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output results as JSON")
	return cmd
}
