package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// NewSettingsCommand creates the 'kaizen settings' command group
func NewSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change program settings stored in the progress document",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print every program setting",
		Args:  cobra.NoArgs,
		RunE:  runSettingsShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one program setting",
		Long: `Change one program setting. Keys match case-insensitively; directory
settings are stored as absolute paths.`,
		Args: cobra.ExactArgs(2),
		RunE: runSettingsSet,
	})
	return cmd
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	p, err := e.load()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	shown := make(map[string]bool)
	for _, key := range models.SettingKeys {
		fmt.Fprintf(w, "%s:\t%s\n", key, p.Settings.Get(key))
		shown[key] = true
	}
	var extra []string
	for key := range p.Settings {
		if !shown[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		fmt.Fprintf(w, "%s:\t%s\n", key, p.Settings[key])
	}
	return w.Flush()
}

func settingKey(name string) (string, bool) {
	for _, key := range models.SettingKeys {
		if strings.EqualFold(key, strings.TrimSpace(name)) {
			return key, true
		}
	}
	return "", false
}

func isDirSetting(key string) bool {
	switch key {
	case models.SettingProjectDir, models.SettingSCCDir, models.SettingBPERDir,
		models.SettingAttestationDir, models.SettingDocumentDir, models.SettingTemplateDir:
		return true
	}
	return false
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, ok := settingKey(args[0])
	if !ok {
		return fmt.Errorf("unknown setting %q (known: %s)", args[0], strings.Join(models.SettingKeys, ", "))
	}
	value := args[1]

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	if isDirSetting(key) && value != "" {
		if value, err = filepath.Abs(value); err != nil {
			return fmt.Errorf("resolve %s: %w", key, err)
		}
		if info, err := os.Stat(value); err != nil || !info.IsDir() {
			e.console.LogWarn(fmt.Sprintf("%s does not exist yet: %s", key, value))
		}
	}

	err = e.update(func(p *models.Progress) error {
		p.Settings[key] = value
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	return nil
}
