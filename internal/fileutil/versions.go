package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var revisionPattern = regexp.MustCompile(`^(.*)_(\d{2})$`)

// Revision splits a Word document name of the form "<base>_NN.doc[x]" into its
// base and two-digit revision. ok is false for other names.
func Revision(filename string) (base string, rev int, ok bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".doc" && ext != ".docx" {
		return "", 0, false
	}
	m := revisionPattern.FindStringSubmatch(strings.TrimSuffix(filename, filepath.Ext(filename)))
	if m == nil {
		return "", 0, false
	}
	rev, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], rev, true
}

// RemoveLowerVersions deletes Word documents in dir that are superseded by a
// higher revision of the same base name. Files sharing the highest revision are
// all kept. Only the top level of dir is examined. Returns the removed names in
// sorted order.
func RemoveLowerVersions(dir string) ([]string, error) {
	scan, err := ScanDirectory(dir, WordExtensions)
	if err != nil {
		return nil, err
	}

	highest := make(map[string]int)
	for _, name := range scan.Names() {
		if base, rev, ok := Revision(name); ok {
			if cur, seen := highest[base]; !seen || rev > cur {
				highest[base] = rev
			}
		}
	}

	var removed []string
	for _, path := range scan.Files {
		name := filepath.Base(path)
		base, rev, ok := Revision(name)
		if !ok || rev >= highest[base] {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}
