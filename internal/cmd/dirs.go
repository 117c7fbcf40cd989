package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/layout"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// NewDirsCommand creates the 'kaizen dirs' command
func NewDirsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dirs",
		Short: "Create the per-checklist directory tree",
		Long: `Create <project>/<checklist>/ with its Attestations, Automated,
Exceptions and Deviations, Manual and Supporting Documents subdirectories for
every checklist not yet built.`,
		Args: cobra.NoArgs,
		RunE: runDirs,
	}
}

func runDirs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	var built []string
	var buildErr error
	err = e.update(func(p *models.Progress) error {
		// checklists built before a failure stay recorded
		built, buildErr = layout.Build(p, e.projectDir(p))
		return nil
	})
	if err != nil {
		return err
	}

	for _, dir := range built {
		fmt.Fprintf(out, "Created %s\n", dir)
	}
	fmt.Fprintf(out, "%d checklist directories created\n", len(built))
	return buildErr
}
