package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for kaizen
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kaizen",
		Short: "Compliance evidence tracker for SCC checklists",
		Long: `Kaizen tracks the evidence each SCC checklist requires: BPER exception
approvals, attestations and supporting documents.

It locates each item's source file (exact name for BPERs and attestations,
fuzzy name match for documents), copies it into the per-checklist directory
tree, pulls status details out of the files and keeps progress.json up to date.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text; main prints the error
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("progress", "progress.json", "Path to the progress document")
	cmd.PersistentFlags().String("config", "", "Path to config file (default: <progress dir>/.kaizen/config.yaml)")
	cmd.PersistentFlags().Bool("verbose", false, "Show debug output")

	cmd.AddCommand(NewInitCommand())
	cmd.AddCommand(NewImportCommand())
	cmd.AddCommand(NewSettingsCommand())
	cmd.AddCommand(NewDirsCommand())
	cmd.AddCommand(NewGatherCommand())
	cmd.AddCommand(NewPullCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewMarkCommand())
	cmd.AddCommand(NewLinkCommand())
	cmd.AddCommand(NewRemoveCommand())
	cmd.AddCommand(NewReportCommand())
	cmd.AddCommand(NewSyncCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewWatchCommand())

	return cmd
}
