package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the per-project state directory holding config, logs and history
const DirName = ".kaizen"

// FileName is the config file inside DirName
const FileName = "config.yaml"

// Path returns the config file path for a project directory
func Path(projectDir string) string {
	return filepath.Join(projectDir, DirName, FileName)
}

// Home returns the kaizen state directory for a project.
// Priority order:
//  1. KAIZEN_HOME environment variable (if set)
//  2. <projectDir>/.kaizen
//
// The directory is created if it doesn't exist.
func Home(projectDir string) (string, error) {
	home := os.Getenv("KAIZEN_HOME")
	if home == "" {
		home = filepath.Join(projectDir, DirName)
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create kaizen home directory: %w", err)
	}
	return home, nil
}

// ResolvePath anchors a configured relative path at the project directory
func ResolvePath(projectDir, p string) string {
	if p == "" || filepath.IsAbs(p) || p == ":memory:" {
		return p
	}
	return filepath.Join(projectDir, p)
}
