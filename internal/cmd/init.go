package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/config"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// dirFlags maps init flags to the settings they fill
var dirFlags = []struct {
	flag    string
	setting string
	usage   string
}{
	{"scc-dir", models.SettingSCCDir, "Directory holding the SCC checklist spreadsheets"},
	{"bper-dir", models.SettingBPERDir, "Directory holding BPER PDFs"},
	{"attestation-dir", models.SettingAttestationDir, "Directory holding attestation PDFs"},
	{"document-dir", models.SettingDocumentDir, "Directory holding supporting documents"},
	{"template-dir", models.SettingTemplateDir, "Directory holding report templates"},
}

// NewInitCommand creates the 'kaizen init' command
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [project-dir]",
		Short: "Create a progress document for a project",
		Long: `Create progress.json in the project directory (or at --progress) with the
source directories recorded in its settings, and write a default
.kaizen/config.yaml when none exists.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
	for _, d := range dirFlags {
		cmd.Flags().String(d.flag, "", d.usage)
	}
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	projectDir := "."
	if len(args) == 1 {
		projectDir = args[0]
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolve project directory: %w", err)
	}
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}

	progressPath := filepath.Join(projectDir, "progress.json")
	if cmd.Flags().Changed("progress") {
		flagPath, _ := cmd.Flags().GetString("progress")
		if progressPath, err = filepath.Abs(flagPath); err != nil {
			return fmt.Errorf("resolve progress path: %w", err)
		}
	}

	e, err := loadEnvAt(cmd, progressPath)
	if err != nil {
		return err
	}

	settings, err := dirSettings(cmd, e)
	if err != nil {
		return err
	}
	if _, err := e.store.Init(projectDir, settings); err != nil {
		return err
	}

	configPath := config.Path(e.baseDir)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.DefaultConfig().Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote default config: %s\n", configPath)
	}

	fmt.Fprintf(out, "Initialized progress document: %s\n", e.store.Path)
	fmt.Fprintf(out, "Project directory: %s\n", projectDir)
	return nil
}

// dirSettings resolves the source directory flags to absolute paths. A path
// that exists but is not a directory is rejected; a missing one only warns so
// sources can be mounted after init.
func dirSettings(cmd *cobra.Command, e *env) (models.Settings, error) {
	settings := make(models.Settings)
	for _, d := range dirFlags {
		value, _ := cmd.Flags().GetString(d.flag)
		if value == "" {
			continue
		}
		abs, err := filepath.Abs(value)
		if err != nil {
			return nil, fmt.Errorf("resolve --%s: %w", d.flag, err)
		}
		info, err := os.Stat(abs)
		switch {
		case err == nil && !info.IsDir():
			return nil, fmt.Errorf("--%s: %s is not a directory", d.flag, abs)
		case errors.Is(err, os.ErrNotExist):
			e.console.LogWarn(fmt.Sprintf("%s does not exist yet: %s", d.setting, abs))
		case err != nil:
			return nil, fmt.Errorf("--%s: %w", d.flag, err)
		}
		settings[d.setting] = abs
	}
	return settings, nil
}
