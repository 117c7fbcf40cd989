package extract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/N0SH3LL/TDL-Kaizen/internal/fileutil"
)

// tailWords is how many trailing words of a document are searched for dates
const tailWords = 50

// Accepted document years, inclusive
const (
	minYear = 2000
	maxYear = 2050
)

var slashDate = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)

// ParseDocumentDate returns the latest plausible M/D/YYYY date found in the
// last words of text, formatted YYYY-MM-DD. Revision tables sit at the end of
// the standard templates, so the most recent date there is the last update.
func ParseDocumentDate(text string) (string, bool) {
	words := strings.Fields(text)
	if len(words) > tailWords {
		words = words[len(words)-tailWords:]
	}

	var latest time.Time
	for _, s := range slashDate.FindAllString(strings.Join(words, " "), -1) {
		d, err := time.Parse("1/2/2006", s)
		if err != nil {
			continue
		}
		if d.Year() < minYear || d.Year() > maxYear {
			continue
		}
		if d.After(latest) {
			latest = d
		}
	}
	if latest.IsZero() {
		return "", false
	}
	return latest.Format("2006-01-02"), true
}

// DocumentVersion returns the two-digit revision encoded in a Word document
// name ("Plan_03.docx" -> "03"), or "" when the name carries none.
func DocumentVersion(filename string) string {
	_, rev, ok := fileutil.Revision(filepath.Base(filename))
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d", rev)
}

// DocumentInfo is the metadata of a supporting document
type DocumentInfo struct {
	LastUpdate Field
	Version    string
	Err        error
}

// Failed reports whether the file could not be read
func (i DocumentInfo) Failed() bool {
	return i.Err != nil
}

// DocumentFile reads the document at path and extracts its last update date
// and file name revision.
func DocumentFile(path string) DocumentInfo {
	info := DocumentInfo{LastUpdate: notAvailable, Version: DocumentVersion(path)}
	text, err := ReadText(path)
	if err != nil {
		info.Err = err
		return info
	}
	if d, ok := ParseDocumentDate(text); ok {
		info.LastUpdate = found(d)
	}
	return info
}
