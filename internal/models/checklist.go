package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var checklistRevision = regexp.MustCompile(`_\d{2}$`)

// ChecklistDir returns the project subdirectory name for a checklist. A trailing
// two-digit "_NN" revision is dropped so every revision of a checklist shares
// one directory.
func ChecklistDir(name string) string {
	return strings.TrimSpace(checklistRevision.ReplaceAllString(name, ""))
}

// Checklist describes one SCC spreadsheet and the structural checks run against it
type Checklist struct {
	SCC                    string `json:"SCC"`
	Version                Text   `json:"Version"`
	SCMName                Text   `json:"SCM Name"`
	LastReviewDate         Text   `json:"Last Review Date"`
	GuidancePresent        bool   `json:"SCC Guidance source presence"`
	PolicyProcedurePresent bool   `json:"SCC Policy and Procedure presence"`
	ExceptionColumnPresent bool   `json:"Exception column presence"`
	DeviationColumnPresent bool   `json:"Deviation column presence"`
	TLAColumnPresent       bool   `json:"TLA column presence"`
	MethodColumnPresent    bool   `json:"Compliance method column presence"`
	SupportingDocPresent   bool   `json:"WPS config sup doc presence"`
	ReviewedWithin180Days  bool   `json:"Reviewed within 180 days"`
	SystemScopePresent     bool   `json:"SCC System Scope Presence"`
	DirectoryBuilt         bool   `json:"Directory built"`
	InfoDocPath            string `json:"Info Doc Path,omitempty"`
}

// Check maps a check identifier to the checklist that owns it and how evidence is collected
type Check struct {
	SCC            string `json:"SCC"`
	EvidenceMethod string `json:"Evidence method"`
}

// Program setting keys
const (
	SettingProjectDir          = "Project Directory"
	SettingSCCDir              = "SCC Directory"
	SettingBPERDir             = "BPERs Directory"
	SettingAttestationDir      = "Attestation Directory"
	SettingDocumentDir         = "Supporting Documents Directory"
	SettingTemplateDir         = "Template Directory"
	SettingDirectoriesBuilt    = "Directories Built"
	SettingTemplatesBuilt      = "Templates Built"
	SettingGatherDate          = "Gather and Sort Date"
	SettingDocTrackerUpdate    = "Doc Tracker Update"
	SettingPullInfoDate        = "Pull Info Date"
	SettingChecklistsGenerated = "Checklists generated"
)

// SettingKeys lists the known settings in display order
var SettingKeys = []string{
	SettingProjectDir,
	SettingSCCDir,
	SettingBPERDir,
	SettingAttestationDir,
	SettingDocumentDir,
	SettingTemplateDir,
	SettingDirectoriesBuilt,
	SettingTemplatesBuilt,
	SettingGatherDate,
	SettingDocTrackerUpdate,
	SettingPullInfoDate,
	SettingChecklistsGenerated,
}

// Settings holds process-wide configuration persisted in the progress document.
// Every value is a string; booleans are "true"/"false" and dates are ISO strings
// or "" when the stage has not run yet.
type Settings map[string]string

// DefaultSettings returns settings for a fresh project rooted at projectDir
func DefaultSettings(projectDir string) Settings {
	return Settings{
		SettingProjectDir:          projectDir,
		SettingDirectoriesBuilt:    "false",
		SettingTemplatesBuilt:      "false",
		SettingGatherDate:          "",
		SettingDocTrackerUpdate:    "",
		SettingPullInfoDate:        "",
		SettingChecklistsGenerated: "",
	}
}

// Get returns the value for key or "" when unset
func (s Settings) Get(key string) string {
	if s == nil {
		return ""
	}
	return s[key]
}

// Bool interprets the value for key as a boolean, defaulting to false
func (s Settings) Bool(key string) bool {
	b, err := strconv.ParseBool(s.Get(key))
	return err == nil && b
}

// SetBool stores a boolean as "true"/"false"
func (s Settings) SetBool(key string, v bool) {
	s[key] = strconv.FormatBool(v)
}

// UnmarshalJSON accepts non-string scalars and stores their JSON text
func (s *Settings) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Settings, len(raw))
	for k, v := range raw {
		v = bytes.TrimSpace(v)
		switch {
		case bytes.Equal(v, []byte("null")):
			out[k] = ""
		case len(v) > 0 && v[0] == '"':
			var str string
			if err := json.Unmarshal(v, &str); err != nil {
				return fmt.Errorf("setting %q: %w", k, err)
			}
			out[k] = str
		case len(v) > 0 && (v[0] == '{' || v[0] == '['):
			return fmt.Errorf("setting %q: expected scalar value", k)
		default:
			out[k] = string(v)
		}
	}
	*s = out
	return nil
}
