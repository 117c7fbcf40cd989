package extract

import (
	"regexp"
	"strings"
)

var (
	validToPattern = regexp.MustCompile(`Valid To:\s*(\d{4}-\d{2}-\d{2}) \d{2}:\d{2}:\d{2}`)
	statePattern   = regexp.MustCompile(`State:\s*(\S+)`)
)

// technicalLimitation marks an exception as a technical limitation acceptance
const technicalLimitation = "Technical Limitation"

// ExceptionInfo is the metadata of a BPER export
type ExceptionInfo struct {
	ValidTo        Field
	ApprovalStatus Field
	TLA            bool
	Err            error
}

// Failed reports whether the file could not be read
func (i ExceptionInfo) Failed() bool {
	return i.Err != nil
}

// ParseException extracts the validity date, workflow state and TLA marker
// from the text of a BPER export.
func ParseException(text string) ExceptionInfo {
	info := ExceptionInfo{
		ValidTo:        notAvailable,
		ApprovalStatus: notFound,
		TLA:            strings.Contains(text, technicalLimitation),
	}
	if m := validToPattern.FindStringSubmatch(text); m != nil {
		info.ValidTo = found(m[1])
	}
	if m := statePattern.FindStringSubmatch(text); m != nil {
		info.ApprovalStatus = found(m[1])
	}
	return info
}

// ExceptionFile reads and parses the BPER at path
func ExceptionFile(path string) ExceptionInfo {
	text, err := ReadText(path)
	if err != nil {
		return ExceptionInfo{ValidTo: notAvailable, ApprovalStatus: errorStatus, Err: err}
	}
	return ParseException(text)
}
