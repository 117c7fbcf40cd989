package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/enrich"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
	"github.com/N0SH3LL/TDL-Kaizen/internal/resolver"
)

// NewPullCommand creates the 'kaizen pull' command
func NewPullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull status details out of the evidence source files",
		Long: `Resolve every record's source file (honoring manual links) and extract:

  BPERs         approval status, last approval date, TLA field
  Attestations  approval status, valid-to date
  Documents     version and last-update date from the revision table

Records whose file cannot be found or read keep their current values.`,
		Args: cobra.NoArgs,
		RunE: runPull,
	}
}

func runPull(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	log, closeLog := e.runLogger()
	defer closeLog()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var updates []enrich.Update
	var runErr error
	err = e.update(func(p *models.Progress) error {
		r := &resolver.Resolver{
			Sources:    resolver.SourcesFromSettings(p.Settings),
			Threshold:  e.cfg.MatchThreshold,
			Extensions: e.cfg.DocumentExtensions,
		}
		updates, runErr = enrich.New(r, log).Run(ctx, p)
		// a cancelled pass keeps the records it already updated
		return nil
	})
	if err != nil {
		return err
	}

	printPullReport(cmd.OutOrStdout(), updates)
	e.recordPull(updates, runErr)
	return runErr
}

func (e *env) recordPull(updates []enrich.Update, runErr error) {
	store, err := e.openHistory(true)
	if err != nil {
		e.console.LogWarn(fmt.Sprintf("History disabled: %v", err))
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	if _, err := store.RecordPull(context.Background(), e.store.Path, updates, runErr); err != nil {
		e.console.LogWarn(fmt.Sprintf("Failed to record pull history: %v", err))
	}
}

func printPullReport(w io.Writer, updates []enrich.Update) {
	fmt.Fprintf(w, "Updated: %d, not found: %d, extract failed: %d, no date: %d, skipped: %d\n",
		enrich.Count(updates, enrich.StatusUpdated),
		enrich.Count(updates, enrich.StatusNotFound),
		enrich.Count(updates, enrich.StatusFailed),
		enrich.Count(updates, enrich.StatusNoDate),
		enrich.Count(updates, enrich.StatusSkipped))
	for _, u := range updates {
		switch u.Status {
		case enrich.StatusNotFound, enrich.StatusFailed, enrich.StatusNoDate:
			fmt.Fprintf(w, "  %s: %s %s (%s): %s\n", u.Status, u.Category.Label(), u.ID, u.SCC, u.Detail)
		}
	}
}
