// Package report writes the per-checklist info documents and reads operator
// edits back out of them.
//
// Each checklist gets <root>/<checklist>/<SCC>_info.md holding the checklist
// header, structural presence checkboxes, one table per evidence category and
// the checks grouped by evidence method. The gathered column of each table is
// a "[x]"/"[ ]" cell an operator may flip by hand; Sync applies those flips to
// the progress document.
package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/N0SH3LL/TDL-Kaizen/internal/filelock"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// Section headings used for the evidence tables
const (
	headingAttestations = "Attestations"
	headingExceptions   = "BPERs"
	headingDocuments    = "Documents"
	headingChecks       = "Checks"
)

const (
	checked   = "[x]"
	unchecked = "[ ]"
)

// Generator renders info documents under Root
type Generator struct {
	Root string
	// HTML also writes <SCC>_info.html next to each markdown file
	HTML bool
	Now  func() time.Time

	markdown goldmark.Markdown
}

// NewGenerator returns a Generator writing under root
func NewGenerator(root string) *Generator {
	return &Generator{
		Root:     root,
		Now:      time.Now,
		markdown: newMarkdown(),
	}
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// InfoDocPath returns where the info document for checklist name lives
func InfoDocPath(root, name string) string {
	return filepath.Join(root, models.ChecklistDir(name), name+"_info.md")
}

// Generate writes one info document per checklist, records each path on the
// checklist descriptors and stamps the Checklists generated setting. Returns
// the markdown paths written in sorted order.
func (g *Generator) Generate(p *models.Progress) ([]string, error) {
	if g.Root == "" {
		return nil, fmt.Errorf("no project directory configured")
	}
	p.Normalize()

	var written []string
	for _, name := range p.ChecklistNames() {
		path := InfoDocPath(g.Root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return written, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}

		md := Render(p, name)
		if err := filelock.AtomicWrite(path, md); err != nil {
			return written, fmt.Errorf("failed to write info doc for %s: %w", name, err)
		}
		if g.HTML {
			page, err := g.RenderHTML(name, md)
			if err != nil {
				return written, fmt.Errorf("failed to render %s: %w", path, err)
			}
			if err := filelock.AtomicWrite(strings.TrimSuffix(path, ".md")+".html", page); err != nil {
				return written, fmt.Errorf("failed to write html for %s: %w", name, err)
			}
		}

		for _, c := range p.SCC {
			if c.SCC == name {
				c.InfoDocPath = path
			}
		}
		written = append(written, path)
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	p.Settings[models.SettingChecklistsGenerated] = models.FormatTimestamp(now())
	return written, nil
}

// RenderHTML converts an info document to a standalone HTML page
func (g *Generator) RenderHTML(title string, md []byte) ([]byte, error) {
	if g.markdown == nil {
		g.markdown = newMarkdown()
	}
	var body bytes.Buffer
	if err := g.markdown.Convert(md, &body); err != nil {
		return nil, err
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n",
		html.EscapeString(title))
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// Render builds the markdown info document for checklist name. False
// positives are omitted from every table.
func Render(p *models.Progress, name string) []byte {
	var sb strings.Builder
	c := descriptor(p, name)

	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "**SCC Version:** %s\n\n", c.Version)
	fmt.Fprintf(&sb, "**SCM Name:** %s\n\n", c.SCMName)
	fmt.Fprintf(&sb, "**Last Review Date:** %s\n\n", c.LastReviewDate)
	presence := []struct {
		ok    bool
		label string
	}{
		{c.GuidancePresent, "SCC Guidance source"},
		{c.PolicyProcedurePresent, "SCC Policy and Procedure"},
		{c.SystemScopePresent, "SCC System Scope Presence"},
		{c.ExceptionColumnPresent, "Exception Column"},
		{c.DeviationColumnPresent, "Deviation Column"},
		{c.TLAColumnPresent, "TLA Column"},
		{c.MethodColumnPresent, "Compliance Method Column"},
		{c.SupportingDocPresent, "WPS config sup doc"},
		{c.ReviewedWithin180Days, "Reviewed within 180 days"},
	}
	for _, item := range presence {
		fmt.Fprintf(&sb, "- %s %s\n", box(item.ok), item.label)
	}
	sb.WriteString("\n")

	var rows [][]string
	for _, it := range p.Items(models.Attestations) {
		if r, ok := owned(it, name).(*models.AttestationRecord); ok {
			rows = append(rows, []string{box(r.Gathered), it.ID, r.ApprovalStatus, r.ValidTo})
		}
	}
	writeTable(&sb, headingAttestations, []string{"Gathered", "Attestation Number", "Approval Status", "Valid To"}, rows)

	rows = nil
	for _, it := range p.Items(models.Exceptions) {
		if r, ok := owned(it, name).(*models.ExceptionRecord); ok {
			rows = append(rows, []string{box(r.Gathered), it.ID, r.ApprovalStatus, r.ValidTo, box(bool(r.TLA))})
		}
	}
	writeTable(&sb, headingExceptions, []string{"Gathered", "BPER Name", "Approval Status", "Valid To", "TLA"}, rows)

	rows = nil
	for _, it := range p.Items(models.Documents) {
		if r, ok := owned(it, name).(*models.SupportingDocument); ok {
			rows = append(rows, []string{box(r.Gathered), it.ID, r.Version, r.LastUpdate})
		}
	}
	writeTable(&sb, headingDocuments, []string{"Gathered", "Document Name", "Version", "Last Update"}, rows)

	writeChecks(&sb, p, name)
	return []byte(sb.String())
}

func descriptor(p *models.Progress, name string) models.Checklist {
	paths := make([]string, 0, len(p.SCC))
	for path, c := range p.SCC {
		if c.SCC == name {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return models.Checklist{SCC: name}
	}
	sort.Strings(paths)
	return *p.SCC[paths[0]]
}

// owned returns the non-false-positive record of it declared by name
func owned(it models.Item, name string) models.Record {
	for _, r := range it.Records {
		ev := r.Common()
		if ev.SCC == name && !ev.FalsePositive {
			return r
		}
	}
	return nil
}

func box(ok bool) string {
	if ok {
		return checked
	}
	return unchecked
}

func writeTable(sb *strings.Builder, heading string, header []string, rows [][]string) {
	fmt.Fprintf(sb, "## %s\n\n", heading)
	if len(rows) == 0 {
		fmt.Fprintf(sb, "No %s found.\n\n", heading)
		return
	}
	writeGrid(sb, header, rows)
}

func writeGrid(sb *strings.Builder, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := range row {
			row[i] = cell(row[i])
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	writeRow(sb, header, widths)
	sep := make([]string, len(header))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sb, sep, widths)
	for _, row := range rows {
		writeRow(sb, row, widths)
	}
	sb.WriteString("\n")
}

func writeRow(sb *strings.Builder, cells []string, widths []int) {
	sb.WriteString("|")
	for i, c := range cells {
		fmt.Fprintf(sb, " %-*s |", widths[i], c)
	}
	sb.WriteString("\n")
}

// inlineMarkup holds the characters that can start inline markup or end a
// table cell. Anything else renders as literal text in a cell.
const inlineMarkup = "\\`*_~<(|"

// cell makes a value safe to place inside a table cell. Whitespace runs
// collapse to one space and markup characters are backslash-escaped, so
// cellText recovers the value exactly.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if !strings.ContainsAny(s, inlineMarkup) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(inlineMarkup, s[i]) >= 0 {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func writeChecks(sb *strings.Builder, p *models.Progress, name string) {
	fmt.Fprintf(sb, "## %s\n\n", headingChecks)

	byMethod := make(map[string][]string)
	for id, c := range p.Checks {
		if c.SCC != name {
			continue
		}
		method := strings.TrimSpace(c.EvidenceMethod)
		if method == "" {
			method = models.NotAvailable
		}
		byMethod[method] = append(byMethod[method], id)
	}
	if len(byMethod) == 0 {
		sb.WriteString("No checks found.\n")
		return
	}

	methods := make([]string, 0, len(byMethod))
	depth := 0
	for m, ids := range byMethod {
		sort.Strings(ids)
		methods = append(methods, m)
		if len(ids) > depth {
			depth = len(ids)
		}
	}
	sort.Strings(methods)

	rows := make([][]string, depth)
	for i := range rows {
		rows[i] = make([]string, len(methods))
		for j, m := range methods {
			if i < len(byMethod[m]) {
				rows[i][j] = byMethod[m][i]
			}
		}
	}

	header := make([]string, len(methods))
	for i, m := range methods {
		header[i] = cell(m)
	}
	writeGrid(sb, header, rows)
}
