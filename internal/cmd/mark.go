package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// NewMarkCommand creates the 'kaizen mark' command
func NewMarkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark <category> <id>",
		Short: "Mark an item as a false positive",
		Long: `Mark an item as a false positive so gather and pull leave it alone.
Without --scc every checklist declaring the item is marked.`,
		Example: `  kaizen mark bpers BPER0001234
  kaizen mark documents "Network Diagram" --scc Network_02`,
		Args: cobra.ExactArgs(2),
		RunE: runMark,
	}
	cmd.Flags().String("scc", "", "Only mark the record owned by this checklist")
	return cmd
}

func runMark(cmd *cobra.Command, args []string) error {
	c, err := models.ParseCategory(args[0])
	if err != nil {
		return err
	}
	scc, _ := cmd.Flags().GetString("scc")

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	var n int
	err = e.update(func(p *models.Progress) error {
		n, err = p.MarkFalsePositive(c, args[1], scc)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Marked %s %q as false positive on %d record(s)\n", c.Label(), args[1], n)
	return nil
}
