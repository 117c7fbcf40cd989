// Package layout creates the per-checklist directory tree in the project root.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// Build creates <root>/<checklist>/<subdir> for every checklist not yet
// marked built, marks each one built and sets the Directories Built setting.
// Returns the checklist directories created in sorted order. A failure stops
// the build; checklists finished before it stay marked.
func Build(p *models.Progress, root string) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("no project directory configured")
	}
	p.Normalize()

	paths := make([]string, 0, len(p.SCC))
	for path := range p.SCC {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var built []string
	for _, path := range paths {
		c := p.SCC[path]
		if c.DirectoryBuilt {
			continue
		}
		dir := filepath.Join(root, models.ChecklistDir(c.SCC))
		if err := Ensure(dir); err != nil {
			return built, err
		}
		c.DirectoryBuilt = true
		built = append(built, dir)
	}

	p.Settings.SetBool(models.SettingDirectoriesBuilt, true)
	return built, nil
}

// Ensure creates dir and its layout subdirectories
func Ensure(dir string) error {
	for _, sub := range models.LayoutDirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Join(dir, sub), err)
		}
	}
	return nil
}

// Missing lists the layout subdirectories absent under dir
func Missing(dir string) []string {
	var missing []string
	for _, sub := range models.LayoutDirs {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err != nil || !info.IsDir() {
			missing = append(missing, sub)
		}
	}
	return missing
}
