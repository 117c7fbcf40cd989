package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Category identifies one of the three evidence collections in the progress document
type Category int

const (
	// Exceptions are exception/deviation approval records (BPERs)
	Exceptions Category = iota
	// Documents are free-text named supporting documents
	Documents
	// Attestations are sign-off records identified by a 6-digit number
	Attestations
)

// Categories lists every category in reconciliation order
var Categories = []Category{Exceptions, Documents, Attestations}

// Checklist layout subdirectories created under each <project>/<SCC>/ directory
const (
	DirAttestations = "Attestations"
	DirAutomated    = "Automated"
	DirExceptions   = "Exceptions and Deviations"
	DirManual       = "Manual"
	DirDocuments    = "Supporting Documents"
)

// LayoutDirs is the full set of per-checklist subdirectories, in creation order
var LayoutDirs = []string{DirAttestations, DirAutomated, DirExceptions, DirManual, DirDocuments}

var (
	exceptionIDPattern   = regexp.MustCompile(`^BPER\d{7}$`)
	attestationIDPattern = regexp.MustCompile(`^\d{6}$`)
)

// String returns the progress document key for the category
func (c Category) String() string {
	switch c {
	case Exceptions:
		return "BPERs"
	case Documents:
		return "Documents"
	case Attestations:
		return "Attestations"
	default:
		return "unknown"
	}
}

// Label returns a singular human-readable name used in log lines
func (c Category) Label() string {
	switch c {
	case Exceptions:
		return "BPER"
	case Documents:
		return "Document"
	case Attestations:
		return "Attestation"
	default:
		return "Item"
	}
}

// Subdir returns the checklist subdirectory that receives gathered files of this category
func (c Category) Subdir() string {
	switch c {
	case Exceptions:
		return DirExceptions
	case Attestations:
		return DirAttestations
	default:
		return DirDocuments
	}
}

// Strict reports whether identifiers of this category map to exactly <id>.pdf.
// Documents are matched by fuzzy name instead.
func (c Category) Strict() bool {
	return c == Exceptions || c == Attestations
}

// ValidID reports whether id has the shape required by the category.
// Document names are free text and always valid when non-empty.
func (c Category) ValidID(id string) bool {
	switch c {
	case Exceptions:
		return exceptionIDPattern.MatchString(id)
	case Attestations:
		return attestationIDPattern.MatchString(id)
	default:
		return strings.TrimSpace(id) != ""
	}
}

// ParseCategory accepts the document key or a common alias
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bper", "bpers", "exception", "exceptions":
		return Exceptions, nil
	case "doc", "docs", "document", "documents":
		return Documents, nil
	case "attestation", "attestations":
		return Attestations, nil
	default:
		return 0, fmt.Errorf("unknown category %q (want bpers, documents or attestations)", s)
	}
}
