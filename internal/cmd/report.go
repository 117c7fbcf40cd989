package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
	"github.com/N0SH3LL/TDL-Kaizen/internal/report"
)

// NewReportCommand creates the 'kaizen report' command
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the per-checklist info documents",
		Long: `Write <project>/<checklist>/<SCC>_info.md for every checklist: header
fields, structural presence checks, one table per evidence category and the
checks grouped by evidence method.

The gathered column can be edited by hand and applied back with 'kaizen sync'.`,
		Args: cobra.NoArgs,
		RunE: runReport,
	}
	cmd.Flags().Bool("html", false, "Also render each info document to HTML (default from config)")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	htmlOut := e.cfg.Report.HTML
	if cmd.Flags().Changed("html") {
		htmlOut, _ = cmd.Flags().GetBool("html")
	}

	var written []string
	err = e.update(func(p *models.Progress) error {
		g := report.NewGenerator(e.projectDir(p))
		g.HTML = htmlOut
		written, err = g.Generate(p)
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, path := range written {
		fmt.Fprintln(out, path)
	}
	fmt.Fprintf(out, "Wrote %d info document(s)\n", len(written))
	return nil
}
