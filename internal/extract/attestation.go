package extract

import (
	"regexp"
	"strings"
)

// Anchor pairs over normalized (single-spaced, lower-cased) attestation text.
// The review date is the first M/D/YYYY date preceding the "review date:" label.
var (
	approvalStatusPattern = regexp.MustCompile(`review date:(.*?)reviewer status:`)
	attestValidToPattern  = regexp.MustCompile(`days until due:(.*?)estimated close date:`)
	reviewDatePattern     = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4}).*?review date:`)
	assessmentPattern     = regexp.MustCompile(`documentation:(.*?)assessment date:`)
	overallStatusPattern  = regexp.MustCompile(`status: review(.*?)overall status:`)
)

// AttestationInfo is the metadata of an attestation export
type AttestationInfo struct {
	ApprovalStatus Field
	ValidTo        Field
	ReviewDate     Field
	AssessmentDate Field
	OverallStatus  Field
	Err            error
}

// Failed reports whether the file could not be read
func (i AttestationInfo) Failed() bool {
	return i.Err != nil
}

// Normalize collapses every whitespace run to one space and lower-cases text
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// ParseAttestation extracts the five attestation fields. Only the first
// occurrence of each anchor pair is used and captured values are trimmed.
func ParseAttestation(text string) AttestationInfo {
	text = Normalize(text)
	return AttestationInfo{
		ApprovalStatus: between(approvalStatusPattern, text, notFound),
		ValidTo:        between(attestValidToPattern, text, notAvailable),
		ReviewDate:     between(reviewDatePattern, text, notAvailable),
		AssessmentDate: between(assessmentPattern, text, notAvailable),
		OverallStatus:  between(overallStatusPattern, text, notAvailable),
	}
}

func between(re *regexp.Regexp, text string, fallback Field) Field {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	return found(strings.TrimSpace(m[1]))
}

// AttestationFile reads and parses the attestation at path
func AttestationFile(path string) AttestationInfo {
	text, err := ReadText(path)
	if err != nil {
		return AttestationInfo{
			ApprovalStatus: errorStatus,
			ValidTo:        notAvailable,
			ReviewDate:     notAvailable,
			AssessmentDate: notAvailable,
			OverallStatus:  notAvailable,
			Err:            err,
		}
	}
	return ParseAttestation(text)
}
