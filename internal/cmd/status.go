package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/logger"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// NewStatusCommand creates the 'kaizen status' command
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show gathered progress per category and the outstanding items",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().Int("limit", 0, "Maximum number of outstanding items to list (0 = all)")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	p, err := e.load()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	out := cmd.OutOrStdout()
	writeStatus(out, p, limit, logger.IsTerminal(out))
	return nil
}

func writeStatus(w io.Writer, p *models.Progress, limit int, colored bool) {
	header := color.New(color.FgCyan, color.Bold)
	if colored {
		header.EnableColor()
	} else {
		header.DisableColor()
	}

	header.Fprintf(w, "=== Evidence Status ===\n")
	fmt.Fprintf(w, "Checklists: %d\n\n", len(p.ChecklistNames()))
	for _, s := range p.Summary() {
		pb := logger.NewProgressBar(s.Total, 30, colored)
		pb.SetPrefix(fmt.Sprintf("%-13s ", s.Category.String()+":"))
		pb.Update(s.Gathered)
		fmt.Fprintln(w, pb.Render())
	}

	outstanding := p.NotGathered()
	fmt.Fprintln(w)
	header.Fprintf(w, "Not gathered: %d\n", len(outstanding))
	shown := outstanding
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, o := range shown {
		fmt.Fprintf(w, "  %-12s %s\n", o.Category.String(), o.String())
	}
	if len(shown) < len(outstanding) {
		fmt.Fprintf(w, "  ... and %d more\n", len(outstanding)-len(shown))
	}

	fmt.Fprintln(w)
	for _, row := range []struct{ label, key string }{
		{"Last gather", models.SettingGatherDate},
		{"Last pull", models.SettingPullInfoDate},
		{"Info docs generated", models.SettingChecklistsGenerated},
	} {
		v := p.Settings.Get(row.key)
		if v == "" {
			v = "never"
		}
		fmt.Fprintf(w, "%-20s %s\n", row.label+":", v)
	}
	if !p.Settings.Bool(models.SettingDirectoriesBuilt) {
		fmt.Fprintln(w, strings.TrimSpace(`
Checklist directories have not been built (run 'kaizen dirs').`))
	}
}
