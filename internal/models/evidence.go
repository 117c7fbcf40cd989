package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Placeholder values written into records when a field could not be determined
const (
	NotAvailable   = "N/A"
	StatusNotFound = "Status: Not Found"
	StatusError    = "Status: Error"
)

// TimestampLayout is the ISO-8601 layout used for every persisted date-time
const TimestampLayout = time.RFC3339

// FormatTimestamp renders t the way it is persisted in the progress document
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Evidence holds the bookkeeping shared by every evidence record.
// One Evidence exists per (identifier, owning checklist) pair.
type Evidence struct {
	SCC                  string `json:"SCC"`
	Gathered             bool   `json:"Gathered"`
	GatheredFile         string `json:"Gathered file,omitempty"`
	GatheredTimestamp    string `json:"Gathered timestamp,omitempty"`
	FalsePositive        bool   `json:"false_positive,omitempty"`
	ManuallyLinked       string `json:"manually_linked,omitempty"`
	UpdatedFromFilename  string `json:"Updated from filename,omitempty"`
	UpdatedFromTimestamp string `json:"Updated from timestamp,omitempty"`
}

// Common gives generic code access to the shared fields
func (e *Evidence) Common() *Evidence { return e }

// MarkGathered records a successful copy of file at ts
func (e *Evidence) MarkGathered(file, ts string) {
	e.Gathered = true
	e.GatheredFile = file
	e.GatheredTimestamp = ts
}

// Record is implemented by the three evidence variants
type Record interface {
	Common() *Evidence
	ID() string
}

// ExceptionRecord is an exception/deviation approval (BPER) declared by one checklist
type ExceptionRecord struct {
	Evidence
	Name           string `json:"BPER name"`
	ApprovalStatus string `json:"Approval Status"`
	ValidTo        string `json:"Valid to"`
	TLA            Flag   `json:"TLA"`
}

// ID returns the BPER identifier
func (r *ExceptionRecord) ID() string { return r.Name }

// SupportingDocument is a free-text named document declared by one checklist
type SupportingDocument struct {
	Evidence
	Name       string `json:"Doc name"`
	Version    string `json:"Version"`
	LastUpdate string `json:"Last update"`
}

// ID returns the declared document name
func (r *SupportingDocument) ID() string { return r.Name }

// AttestationRecord is a sign-off record declared by one checklist
type AttestationRecord struct {
	Evidence
	Number         string `json:"Attestation num"`
	ApprovalStatus string `json:"Approval Status"`
	ValidTo        string `json:"Valid to"`
	ReviewDate     string `json:"Review Date,omitempty"`
	AssessmentDate string `json:"Assessment Date,omitempty"`
	OverallStatus  string `json:"Overall Status,omitempty"`
}

// ID returns the attestation number
func (r *AttestationRecord) ID() string { return r.Number }

// Flag is a boolean that also accepts the empty-string seed value written by
// older progress files.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = false
			return nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid flag value %q", s)
		}
		*f = Flag(b)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = Flag(b)
	return nil
}

// Text is a string that tolerates non-string JSON scalars (false, null, numbers)
// found in descriptors produced by the spreadsheet ingester.
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*t = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("expected scalar, got %s", string(data))
	default:
		*t = Text(data)
		return nil
	}
}
