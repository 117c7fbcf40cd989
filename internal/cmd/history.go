package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/history"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// NewHistoryCommand creates the 'kaizen history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded gather, pull and sync runs",
		Long: `Show the run history database. Without flags the most recent runs are
listed. --run shows every record outcome of one run; --item shows the
outcomes recorded for one identifier across runs.`,
		Example: `  kaizen history
  kaizen history --run 3f2b9c1e-...
  kaizen history --item bpers:BPER0001234`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
	cmd.Flags().Int("limit", 10, "Maximum number of rows to show")
	cmd.Flags().String("run", "", "Show the events of one run")
	cmd.Flags().String("item", "", "Show the events of one item as <category>:<id>")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	store, err := e.openHistory(false)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	if store == nil {
		fmt.Fprintln(out, "No history recorded yet")
		return nil
	}
	defer store.Close()

	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run")
	item, _ := cmd.Flags().GetString("item")

	switch {
	case runID != "":
		run, err := store.GetRun(ctx, runID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("run %q not found", runID)
		}
		if err != nil {
			return err
		}
		events, err := store.RunEvents(ctx, runID)
		if err != nil {
			return err
		}
		writeRuns(out, []*history.Run{run})
		fmt.Fprintln(out)
		writeEvents(out, events)

	case item != "":
		cat, id, ok := strings.Cut(item, ":")
		if !ok || id == "" {
			return fmt.Errorf("--item must be <category>:<id>, got %q", item)
		}
		c, err := models.ParseCategory(cat)
		if err != nil {
			return err
		}
		events, err := store.ItemHistory(ctx, c, id, limit)
		if err != nil {
			return err
		}
		writeEvents(out, events)

	default:
		runs, err := store.RecentRuns(ctx, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No history recorded yet")
			return nil
		}
		writeRuns(out, runs)
	}
	return nil
}

func writeRuns(w io.Writer, runs []*history.Run) {
	color.New(color.FgCyan).Fprintf(w, "=== Runs ===\n")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSTARTED\tDURATION\tOK\tFAILED\tSKIPPED\tERROR")
	for _, r := range runs {
		duration := "running"
		if !r.Running() {
			duration = r.Finished.Sub(r.Started).Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.Kind, r.Started.Local().Format(time.DateTime), duration,
			r.Succeeded, r.Failed, r.Skipped, r.Error)
	}
	tw.Flush()
}

func writeEvents(w io.Writer, events []history.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events recorded")
		return
	}
	color.New(color.FgCyan).Fprintf(w, "=== Events ===\n")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tCATEGORY\tITEM\tSCC\tOUTCOME\tSOURCE\tDETAIL")
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.Recorded.Local().Format(time.DateTime), ev.Category, ev.ItemID, ev.SCC,
			ev.Outcome, ev.Source, ev.Detail)
	}
	tw.Flush()
}
