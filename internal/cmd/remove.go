package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// NewRemoveCommand creates the 'kaizen remove' command
func NewRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <checklist>",
		Short: "Remove a checklist and every record it owns",
		Long: `Remove a checklist descriptor and the records it owns. Items shared with
other checklists keep their remaining records. Files already copied into the
checklist directory are left on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	name := args[0]
	var n int
	err = e.update(func(p *models.Progress) error {
		if !slices.Contains(p.ChecklistNames(), name) {
			return fmt.Errorf("checklist %q not found", name)
		}
		n = p.RemoveChecklist(name)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s and %d record(s)\n", name, n)
	return nil
}
