package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// NewImportCommand creates the 'kaizen import' command
func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <seed.json>...",
		Short: "Import checklist seeds produced by the spreadsheet ingester",
		Long: `Import one or more checklist seed documents. Each file holds a single seed
object or an array of seeds. Re-importing a checklist replaces every record it
previously declared.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
}

func readSeeds(path string) ([]models.ChecklistSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var seeds []models.ChecklistSeed
		if err := json.Unmarshal(data, &seeds); err != nil {
			return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
		}
		return seeds, nil
	}
	var seed models.ChecklistSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return []models.ChecklistSeed{seed}, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	var seeds []models.ChecklistSeed
	for _, path := range args {
		s, err := readSeeds(path)
		if err != nil {
			return err
		}
		seeds = append(seeds, s...)
	}

	return e.update(func(p *models.Progress) error {
		for _, seed := range seeds {
			if err := p.ImportChecklist(seed); err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %s: %d BPERs, %d documents, %d attestations, %d checks\n",
				seed.Checklist.SCC, len(seed.BPERs), len(seed.Documents), len(seed.Attestations), len(seed.Checks))
		}
		return nil
	})
}
