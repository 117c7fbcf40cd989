package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/history"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
	"github.com/N0SH3LL/TDL-Kaizen/internal/report"
)

// NewSyncCommand creates the 'kaizen sync' command
func NewSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Apply gathered checkboxes edited in the info documents",
		Long: `Read every checklist's info document and copy the state of its gathered
checkboxes back onto the records that checklist owns. Rows that were removed
from a table leave their records unchanged; false positives are never touched.`,
		Args: cobra.NoArgs,
		RunE: runSync,
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	var results []report.SyncResult
	err = e.update(func(p *models.Progress) error {
		results, err = report.Sync(p, e.projectDir(p))
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	changed := 0
	for _, r := range results {
		switch {
		case r.Missing:
			fmt.Fprintf(out, "%s: no info document (run 'kaizen report')\n", r.Checklist)
		case r.Changed > 0:
			fmt.Fprintf(out, "%s: %d record(s) updated\n", r.Checklist, r.Changed)
		}
		changed += r.Changed
	}
	fmt.Fprintf(out, "Synced %d checklist(s), %d record(s) updated\n", len(results), changed)

	e.recordSync(results)
	return nil
}

func (e *env) recordSync(results []report.SyncResult) {
	store, err := e.openHistory(true)
	if err != nil {
		e.console.LogWarn(fmt.Sprintf("History disabled: %v", err))
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	ctx := context.Background()
	run, err := store.BeginRun(ctx, history.KindSync, e.store.Path)
	if err != nil {
		e.console.LogWarn(fmt.Sprintf("Failed to record sync history: %v", err))
		return
	}
	var events []history.Event
	for _, r := range results {
		for _, c := range r.Changes {
			outcome := "unmarked"
			if c.Gathered {
				outcome = "marked"
			}
			events = append(events, history.Event{
				Category: c.Category,
				ItemID:   c.ID,
				SCC:      r.Checklist,
				Outcome:  outcome,
				Source:   r.Path,
				Detail:   "edited in info document",
			})
		}
	}
	if err := store.Record(ctx, run.ID, events, "marked", "unmarked"); err != nil {
		e.console.LogWarn(fmt.Sprintf("Failed to record sync events: %v", err))
	}
	if err := store.FinishRun(ctx, run, nil); err != nil {
		e.console.LogWarn(fmt.Sprintf("Failed to finish sync run: %v", err))
	}
}
