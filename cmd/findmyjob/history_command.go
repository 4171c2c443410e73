package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"findmyjob/internal/runlog"
)

const defaultHistoryLimit = 20

type historyEntry struct {
	RunID      string `json:"run_id"`
	StartedAt  string `json:"started_at"`
	Outcome    string `json:"outcome"`
	PID        int    `json:"pid,omitempty"`
	ReadyAfter string `json:"ready_after,omitempty"`
	Errors     int    `json:"errors"`
	FirstError string `json:"first_error,omitempty"`
	KillResult string `json:"kill_result,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent supervisor runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			store, err := runlog.Open(cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read run history: %w", err)
			}

			entries := make([]historyEntry, 0, len(runs))
			for _, run := range runs {
				entries = append(entries, toHistoryEntry(run))
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output runs as JSON")
	return cmd
}

func toHistoryEntry(run runlog.Run) historyEntry {
	entry := historyEntry{
		RunID:      run.ID,
		StartedAt:  run.StartedAt.Local().Format(time.DateTime),
		Outcome:    run.Outcome,
		PID:        run.PID,
		Errors:     run.ErrorCount,
		FirstError: run.FirstError,
		KillResult: run.KillResult,
	}
	if entry.Outcome == "" {
		entry.Outcome = "-"
	}
	if ready := run.ReadyAfter(); ready > 0 {
		entry.ReadyAfter = fmt.Sprintf("%.1fs", ready.Seconds())
	}
	return entry
}

func renderHistoryTable(entries []historyEntry) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Started", "Outcome", "PID", "Ready", "Errors", "Shutdown", "Run"})
	for _, e := range entries {
		pid := "-"
		if e.PID > 0 {
			pid = strconv.Itoa(e.PID)
		}
		tw.AppendRow(table.Row{
			e.StartedAt,
			e.Outcome,
			pid,
			dashIfEmpty(e.ReadyAfter),
			e.Errors,
			dashIfEmpty(e.KillResult),
			shortRunID(e.RunID),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "PID", Align: text.AlignRight},
		{Name: "Ready", Align: text.AlignRight},
		{Name: "Errors", Align: text.AlignRight},
		{Name: "Shutdown", WidthMax: 40},
	})
	return tw.Render()
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
