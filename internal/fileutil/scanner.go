package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DocumentExtensions are the file types considered when matching supporting documents
var DocumentExtensions = []string{".docx", ".doc", ".xlsx", ".xls", ".pdf"}

// WordExtensions are the file types that carry an "_NN" revision suffix
var WordExtensions = []string{".doc", ".docx"}

// ScanResult lists the candidate files of one source directory
type ScanResult struct {
	// Files holds absolute paths in sorted order
	Files []string
}

// Names returns the base names of the matched files in the same order
func (r *ScanResult) Names() []string {
	names := make([]string, len(r.Files))
	for i, f := range r.Files {
		names[i] = filepath.Base(f)
	}
	return names
}

// ScanDirectory lists the regular files directly inside dir whose extension is
// in extensions (any extension when empty; matched case-insensitively, with or
// without the leading dot). Subdirectories, dot files and Office owner files
// ("~$Report.docx") are skipped.
func ScanDirectory(dir string, extensions []string) (*ScanResult, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	wanted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		wanted[ext] = true
	}

	result := &ScanResult{Files: make([]string, 0, len(entries))}
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if len(wanted) > 0 && !wanted[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		result.Files = append(result.Files, filepath.Join(abs, name))
	}
	slices.Sort(result.Files)
	return result, nil
}

// IsRegularFile reports whether path exists and is a regular file
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
