package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/filelock"
	"github.com/N0SH3LL/TDL-Kaizen/internal/resolver"
	"github.com/N0SH3LL/TDL-Kaizen/internal/watch"
)

// NewWatchCommand creates the 'kaizen watch' command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run gather whenever a source directory changes",
		Long: `Watch the BPER, attestation and document source directories and run a
gather pass once changes have settled for the debounce delay. A pass is
postponed while another command holds the progress document. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	cmd.Flags().Duration("debounce", 0, "Quiet period before a pass runs (default from config)")
	cmd.Flags().Bool("initial", false, "Run one gather pass before watching")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	p, err := e.load()
	if err != nil {
		return err
	}

	debounce := e.cfg.Watch.Debounce
	if cmd.Flags().Changed("debounce") {
		debounce, _ = cmd.Flags().GetDuration("debounce")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	pass := func(ctx context.Context, changed []string) error {
		log, closeLog := e.runLogger()
		defer closeLog()
		report, err := e.gather(ctx, gatherOptions{}, log)
		if report != nil {
			printGatherReport(out, report)
		}
		return err
	}

	src := resolver.SourcesFromSettings(p.Settings)
	w, err := watch.New([]string{src.Exceptions, src.Attestations, src.Documents}, debounce, pass, e.console)
	if err != nil {
		return err
	}
	defer w.Close()
	w.Lock = filelock.NewFileLock(filelock.PathFor(e.store.Path))

	if initial, _ := cmd.Flags().GetBool("initial"); initial {
		if err := pass(ctx, nil); err != nil && ctx.Err() == nil {
			e.console.LogError(fmt.Sprintf("Initial pass failed: %v", err))
		}
	}

	e.console.LogInfo(fmt.Sprintf("Watching %d director(ies), debounce %s", len(w.Dirs()), effectiveDebounce(debounce)))
	return w.Run(ctx)
}

func effectiveDebounce(d time.Duration) time.Duration {
	if d <= 0 {
		return watch.DefaultDebounce
	}
	return d
}
