// Package resolver decides which source file backs a declared evidence item.
//
// Precedence is fixed: a manual link is used unconditionally, strict categories
// map to exactly "<id>.pdf" in their source directory, and supporting documents
// fall back to fuzzy name matching against the files in the document source.
package resolver

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/N0SH3LL/TDL-Kaizen/internal/fileutil"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
	"github.com/N0SH3LL/TDL-Kaizen/internal/similarity"
)

// Method records how a source file was chosen
type Method string

const (
	MethodManual Method = "manual"
	MethodExact  Method = "exact"
	MethodFuzzy  Method = "fuzzy"
)

// Not-found reasons
const (
	ReasonManualMissing = "manual link not found"
	ReasonFileMissing   = "file not found"
	ReasonNoCandidates  = "no candidate files"
	ReasonNoCloseMatch  = "no close match"
)

// NotFoundError reports that no source file could be resolved for an item
type NotFoundError struct {
	Category models.Category
	ID       string
	Reason   string
	Path     string  // path that was checked, when there was one
	Best     string  // best fuzzy candidate below threshold
	Score    float64 // score of Best
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Best != "":
		return fmt.Sprintf("%s %q: %s (best %q scored %.2f)", e.Category.Label(), e.ID, e.Reason, e.Best, e.Score)
	case e.Path != "":
		return fmt.Sprintf("%s %q: %s: %s", e.Category.Label(), e.ID, e.Reason, e.Path)
	default:
		return fmt.Sprintf("%s %q: %s", e.Category.Label(), e.ID, e.Reason)
	}
}

// IsNotFound reports whether err is or wraps a *NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Resolution is a chosen source file
type Resolution struct {
	Path   string
	Method Method
	Score  float64 // 1 for manual and exact matches
}

// Sources holds the source directory of each category
type Sources struct {
	Exceptions   string
	Documents    string
	Attestations string
}

// Dir returns the source directory of c
func (s Sources) Dir(c models.Category) string {
	switch c {
	case models.Exceptions:
		return s.Exceptions
	case models.Attestations:
		return s.Attestations
	default:
		return s.Documents
	}
}

// SourcesFromSettings reads the source directories from the program settings
func SourcesFromSettings(s models.Settings) Sources {
	return Sources{
		Exceptions:   s.Get(models.SettingBPERDir),
		Documents:    s.Get(models.SettingDocumentDir),
		Attestations: s.Get(models.SettingAttestationDir),
	}
}

// Resolver resolves items against a fixed set of source directories
type Resolver struct {
	Sources    Sources
	Threshold  float64  // minimum fuzzy score; DefaultThreshold when zero
	Extensions []string // document candidate extensions; fileutil.DocumentExtensions when empty
}

// New returns a Resolver with default threshold and extensions
func New(sources Sources) *Resolver {
	return &Resolver{Sources: sources}
}

// Resolve picks the source file for id. manualLink is the record's manual
// override, or "" when unset. Failures are returned as *NotFoundError except
// for directory scan failures, which are wrapped as-is.
func (r *Resolver) Resolve(c models.Category, id, manualLink string) (Resolution, error) {
	if manualLink != "" {
		if !fileutil.IsRegularFile(manualLink) {
			return Resolution{}, &NotFoundError{Category: c, ID: id, Reason: ReasonManualMissing, Path: manualLink}
		}
		return Resolution{Path: manualLink, Method: MethodManual, Score: 1}, nil
	}

	dir := r.Sources.Dir(c)
	if c.Strict() {
		path := filepath.Join(dir, id+".pdf")
		if dir == "" || !fileutil.IsRegularFile(path) {
			return Resolution{}, &NotFoundError{Category: c, ID: id, Reason: ReasonFileMissing, Path: path}
		}
		return Resolution{Path: path, Method: MethodExact, Score: 1}, nil
	}

	if dir == "" {
		return Resolution{}, &NotFoundError{Category: c, ID: id, Reason: ReasonNoCandidates}
	}
	candidates, err := r.candidates(dir)
	if err != nil {
		return Resolution{}, err
	}
	match, ok := similarity.BestMatch(id, candidates)
	if !ok {
		return Resolution{}, &NotFoundError{Category: c, ID: id, Reason: ReasonNoCandidates, Path: dir}
	}
	if match.Score < r.threshold() {
		return Resolution{}, &NotFoundError{
			Category: c,
			ID:       id,
			Reason:   ReasonNoCloseMatch,
			Best:     filepath.Base(match.Candidate),
			Score:    match.Score,
		}
	}
	return Resolution{Path: match.Candidate, Method: MethodFuzzy, Score: match.Score}, nil
}

// ResolveRecord resolves using the record's identifier and manual link
func (r *Resolver) ResolveRecord(c models.Category, rec models.Record) (Resolution, error) {
	return r.Resolve(c, rec.ID(), rec.Common().ManuallyLinked)
}

func (r *Resolver) threshold() float64 {
	if r.Threshold <= 0 {
		return similarity.DefaultThreshold
	}
	return r.Threshold
}

func (r *Resolver) candidates(dir string) ([]string, error) {
	exts := r.Extensions
	if len(exts) == 0 {
		exts = fileutil.DocumentExtensions
	}
	result, err := fileutil.ScanDirectory(dir, exts)
	if err != nil {
		return nil, fmt.Errorf("failed to list document candidates: %w", err)
	}
	return result.Files, nil
}
