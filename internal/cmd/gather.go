package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/logger"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
	"github.com/N0SH3LL/TDL-Kaizen/internal/reconcile"
)

// NewGatherCommand creates the 'kaizen gather' command
func NewGatherCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gather",
		Short: "Locate evidence files and copy them into the checklist directories",
		Long: `Resolve every declared BPER, supporting document and attestation against
the source directories and copy each match into
<project>/<checklist>/<category directory>/ for every checklist that declares it.

BPERs and attestations must match <id>.pdf exactly; documents are matched by
name similarity. Items marked as false positives are left untouched. An
interrupted pass keeps the records it already updated.`,
		Args: cobra.NoArgs,
		RunE: runGather,
	}
	cmd.Flags().StringSlice("category", nil, "Restrict the pass to these categories (bpers, documents, attestations)")
	cmd.Flags().Float64("threshold", 0, "Minimum document name similarity (default from config)")
	cmd.Flags().Bool("prune", false, "Delete superseded _NN document revisions before matching")
	return cmd
}

// gatherOptions are the per-invocation overrides of a gather pass
type gatherOptions struct {
	categories []models.Category
}

func parseCategories(names []string) ([]models.Category, error) {
	var out []models.Category
	for _, n := range names {
		c, err := models.ParseCategory(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func runGather(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	names, _ := cmd.Flags().GetStringSlice("category")
	cats, err := parseCategories(names)
	if err != nil {
		return err
	}
	var threshold *float64
	if cmd.Flags().Changed("threshold") {
		v, _ := cmd.Flags().GetFloat64("threshold")
		threshold = &v
	}
	var prune *bool
	if cmd.Flags().Changed("prune") {
		v, _ := cmd.Flags().GetBool("prune")
		prune = &v
	}
	e.cfg.MergeWithFlags(nil, threshold, prune)
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	log, closeLog := e.runLogger()
	defer closeLog()

	report, err := e.gather(cmd.Context(), gatherOptions{categories: cats}, log)
	if report != nil {
		printGatherReport(cmd.OutOrStdout(), report)
	}
	return err
}

// gather runs one reconciliation pass under the document lock, saves the
// result (a cancelled pass keeps what it updated) and records it in history.
func (e *env) gather(ctx context.Context, opts gatherOptions, log logger.Logger) (*reconcile.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var report *reconcile.Report
	var runErr error
	var summary []models.CategorySummary
	err := e.update(func(p *models.Progress) error {
		o := reconcile.OptionsFromSettings(p.Settings)
		o.Destination = e.projectDir(p)
		o.Threshold = e.cfg.MatchThreshold
		o.Extensions = e.cfg.DocumentExtensions
		// superseded revisions are only pruned once their info has been pulled
		o.PruneDocuments = e.cfg.PruneLowerVersions && p.Settings.Get(models.SettingPullInfoDate) != ""
		o.Categories = opts.categories

		report, runErr = reconcile.New(o, log).Run(ctx, p)
		if report == nil {
			return runErr
		}
		summary = p.Summary()
		return nil
	})
	if err != nil {
		return report, err
	}

	e.console.LogSummary(summary)
	e.recordGather(report, runErr)
	return report, runErr
}

func (e *env) recordGather(report *reconcile.Report, runErr error) {
	store, err := e.openHistory(true)
	if err != nil {
		e.console.LogWarn(fmt.Sprintf("History disabled: %v", err))
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	// recorded even when the pass was cancelled
	run, err := store.RecordGather(context.Background(), e.store.Path, report, runErr)
	if err != nil {
		e.console.LogWarn(fmt.Sprintf("Failed to record gather history: %v", err))
		return
	}
	e.console.LogDebug(fmt.Sprintf("Recorded run %s", run.ID))
}

func printGatherReport(w io.Writer, report *reconcile.Report) {
	fmt.Fprintf(w, "Gathered: %d, not found: %d, copy failed: %d, skipped: %d (%s)\n",
		report.Count(reconcile.OutcomeGathered),
		report.Count(reconcile.OutcomeNotFound),
		report.Count(reconcile.OutcomeCopyFailed),
		report.Count(reconcile.OutcomeSkipped),
		report.Duration().Round(time.Millisecond))
	for _, r := range report.Filter(reconcile.OutcomeNotFound) {
		fmt.Fprintf(w, "  not found: %s %s (%s): %s\n", r.Category.Label(), r.ID, r.SCC, r.Detail)
	}
	for _, r := range report.Filter(reconcile.OutcomeCopyFailed) {
		fmt.Fprintf(w, "  copy failed: %s %s (%s): %s\n", r.Category.Label(), r.ID, r.SCC, r.Detail)
	}
}
