package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/fileutil"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// NewLinkCommand creates the 'kaizen link' command
func NewLinkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <category> <id> <path>",
		Short: "Link an item to a specific source file",
		Long: `Pin an item to a source file. Gather and pull use the linked file
instead of searching the source directory. Without --scc every checklist
declaring the item is linked.`,
		Example: `  kaizen link documents "Network Diagram" "/shares/docs/Net Diagram v3.docx"`,
		Args:    cobra.ExactArgs(3),
		RunE:    runLink,
	}
	cmd.Flags().String("scc", "", "Only link the record owned by this checklist")
	return cmd
}

func runLink(cmd *cobra.Command, args []string) error {
	c, err := models.ParseCategory(args[0])
	if err != nil {
		return err
	}
	scc, _ := cmd.Flags().GetString("scc")
	path, err := filepath.Abs(args[2])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[2], err)
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	if !fileutil.IsRegularFile(path) {
		e.console.LogWarn(fmt.Sprintf("%s does not exist yet; gather will report it as missing", path))
	}

	var n int
	err = e.update(func(p *models.Progress) error {
		n, err = p.LinkManually(c, args[1], scc, path)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Linked %s %q to %s on %d record(s)\n", c.Label(), args[1], path, n)
	return nil
}
