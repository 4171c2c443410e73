package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"findmyjob/internal/health"
)

var errUnhealthy = errors.New("backend is not healthy")

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "probe",
		Short:       "Probe the backend health endpoint once",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			probeCtx, cancel := context.WithTimeout(cmd.Context(), health.ProbeTimeout)
			defer cancel()

			out := cmd.OutOrStdout()
			if ctx.prober().Probe(probeCtx) {
				fmt.Fprintf(out, "healthy (%s)\n", health.DefaultURL)
				return nil
			}
			fmt.Fprintf(out, "unhealthy (%s)\n", health.DefaultURL)
			return errUnhealthy
		},
	}
}
