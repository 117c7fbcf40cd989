package extract

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bperText = `Exception Request BPER0001234
Requested By: J. Smith
State: Approved
CMS: Network Operations
Valid From: 2023-01-01 00:00:00
Valid To: 2025-06-30 23:59:59
Justification: Technical Limitation of the appliance firmware.`

const attestationText = `Attestation 123456
Owner: Network Team
Last Reviewed 3/14/2024 by reviewer
Review Date: Approved
Reviewer Status: Complete
Days Until Due:   2024-12-31
Estimated Close Date: none
Documentation: 2024-02-01
Assessment Date: pending
Status: Review In Progress
Overall Status: open`

func TestParseException(t *testing.T) {
	info := ParseException(bperText)
	assert.Equal(t, Field{Value: "2025-06-30", Found: true}, info.ValidTo)
	assert.Equal(t, Field{Value: "Approved", Found: true}, info.ApprovalStatus)
	assert.True(t, info.TLA)
	assert.False(t, info.Failed())
}

func TestParseExceptionMissingAnchors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		validTo string
		status  string
		tla     bool
	}{
		{"empty", "", "N/A", "Status: Not Found", false},
		{"date without time", "Valid To: 2025-06-30\nState: Draft", "N/A", "Draft", false},
		{"tla only", "notes: Technical Limitation", "N/A", "Status: Not Found", true},
		{"tla case sensitive", "technical limitation", "N/A", "Status: Not Found", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseException(tt.text)
			assert.Equal(t, tt.validTo, info.ValidTo.String())
			assert.Equal(t, tt.status, info.ApprovalStatus.String())
			assert.Equal(t, tt.tla, info.TLA)
		})
	}
}

func TestParseAttestation(t *testing.T) {
	info := ParseAttestation(attestationText)
	assert.Equal(t, "approved", info.ApprovalStatus.String())
	assert.Equal(t, "2024-12-31", info.ValidTo.String())
	assert.Equal(t, "3/14/2024", info.ReviewDate.String())
	assert.Equal(t, "2024-02-01", info.AssessmentDate.String())
	assert.Equal(t, "in progress", info.OverallStatus.String())
	assert.True(t, info.ApprovalStatus.Found)
}

func TestParseAttestationPlaceholders(t *testing.T) {
	info := ParseAttestation("nothing useful here")
	assert.Equal(t, Field{Value: "Status: Not Found"}, info.ApprovalStatus)
	for _, f := range []Field{info.ValidTo, info.ReviewDate, info.AssessmentDate, info.OverallStatus} {
		assert.Equal(t, Field{Value: "N/A"}, f)
	}
}

func TestParseAttestationFirstMatchOnly(t *testing.T) {
	text := "Review Date: first Reviewer Status: x Review Date: second Reviewer Status: y"
	assert.Equal(t, "first", ParseAttestation(text).ApprovalStatus.String())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "review date: approved", Normalize("  Review\n\tDATE:\r\n  Approved \n"))
}

func TestParseDocumentDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"latest wins", "Revision history 1/5/2023 initial 11/20/2023 update 3/2/2022", "2023-11-20", true},
		{"zero padded", "approved 01/09/2024", "2024-01-09", true},
		{"out of range years dropped", "signed 1/1/1999 and 1/1/2051", "", false},
		{"invalid calendar date skipped", "13/45/2023 then 2/3/2021", "2021-02-03", true},
		{"no dates", "no revision table", "", false},
		{"date outside tail ignored", "5/5/2030 " + strings.Repeat("word ", 50), "", false},
		{"date inside tail", strings.Repeat("word ", 49) + "5/5/2030", "2030-05-05", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDocumentDate(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocumentVersion(t *testing.T) {
	assert.Equal(t, "03", DocumentVersion("/src/Access Plan_03.docx"))
	assert.Equal(t, "12", DocumentVersion("Access Plan_12.doc"))
	assert.Equal(t, "", DocumentVersion("Access Plan_03.pdf"))
	assert.Equal(t, "", DocumentVersion("Access Plan_3.docx"))
	assert.Equal(t, "", DocumentVersion("Access Plan.docx"))
}

// writeDOCX builds a minimal Office Open XML package with one paragraph per line
func writeDOCX(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><Types/>`))
	require.NoError(t, err)

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, l := range lines {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + l + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	w, err = zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestReadDOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Security Policy_02.docx")
	writeDOCX(t, path, "Security Policy", "Revision 1 approved 4/1/2022", "Revision 2 approved 10/15/2023")

	text, err := ReadDOCX(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Security Policy\n")
	assert.Contains(t, text, "10/15/2023")

	info := DocumentFile(path)
	require.NoError(t, info.Err)
	assert.Equal(t, Field{Value: "2023-10-15", Found: true}, info.LastUpdate)
	assert.Equal(t, "02", info.Version)
}

func TestFileAdaptersNeverFail(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "BPER0001234.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("not a pdf at all"), 0644))

	ex := ExceptionFile(garbage)
	assert.True(t, ex.Failed())
	assert.Equal(t, "N/A", ex.ValidTo.String())
	assert.Equal(t, "Status: Error", ex.ApprovalStatus.String())
	assert.False(t, ex.TLA)

	at := AttestationFile(filepath.Join(dir, "missing.pdf"))
	assert.True(t, at.Failed())
	assert.Equal(t, "Status: Error", at.ApprovalStatus.String())
	assert.Equal(t, "N/A", at.OverallStatus.String())

	sheet := filepath.Join(dir, "Inventory_01.xlsx")
	require.NoError(t, os.WriteFile(sheet, []byte("PK"), 0644))
	doc := DocumentFile(sheet)
	assert.True(t, errors.Is(doc.Err, ErrUnsupported))
	assert.False(t, doc.LastUpdate.Found)

	brokenDocx := filepath.Join(dir, "Broken_01.docx")
	require.NoError(t, os.WriteFile(brokenDocx, []byte("not a zip"), 0644))
	doc = DocumentFile(brokenDocx)
	assert.True(t, doc.Failed())
	assert.Equal(t, "01", doc.Version)
}

func TestRegisterReader(t *testing.T) {
	prev := RegisterReader(".txt", func(path string) (string, error) {
		data, err := os.ReadFile(path)
		return string(data), err
	})
	assert.Nil(t, prev)
	t.Cleanup(func() { RegisterReader(".txt", nil) })

	path := filepath.Join(t.TempDir(), "BPER0001234.TXT")
	require.NoError(t, os.WriteFile(path, []byte(bperText), 0644))

	info := ExceptionFile(path)
	require.NoError(t, info.Err)
	assert.Equal(t, "Approved", info.ApprovalStatus.String())

	RegisterReader(".txt", nil)
	_, err := ReadText(path)
	assert.ErrorIs(t, err, ErrUnsupported)
}
