package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// SyncResult describes what Sync did for one checklist
type SyncResult struct {
	Checklist string
	Path      string
	Missing   bool
	Changed   int
	Changes   []Change
}

// Change is one record whose gathered flag Sync flipped
type Change struct {
	Category models.Category
	ID       string
	Gathered bool
}

// Sync reads every checklist's info document under root and applies its
// gathered checkboxes to the records that checklist owns. Rows are matched by
// identifier; records without a row are left unchanged. Checklists without an
// info document are reported as Missing.
func Sync(p *models.Progress, root string) ([]SyncResult, error) {
	p.Normalize()

	var results []SyncResult
	for _, name := range p.ChecklistNames() {
		path := infoDocFor(p, root, name)
		res := SyncResult{Checklist: name, Path: path}

		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			res.Missing = true
			results = append(results, res)
			continue
		}
		if err != nil {
			return results, fmt.Errorf("failed to read info doc for %s: %w", name, err)
		}

		tables := ParseTables(data)
		res.Changes = append(res.Changes, apply(p, models.Attestations, name, tables[headingAttestations])...)
		res.Changes = append(res.Changes, apply(p, models.Exceptions, name, tables[headingExceptions])...)
		res.Changes = append(res.Changes, apply(p, models.Documents, name, tables[headingDocuments])...)
		res.Changed = len(res.Changes)
		results = append(results, res)
	}
	return results, nil
}

func infoDocFor(p *models.Progress, root, name string) string {
	for _, c := range p.SCC {
		if c.SCC == name && c.InfoDocPath != "" {
			return c.InfoDocPath
		}
	}
	return InfoDocPath(root, name)
}

func apply(p *models.Progress, c models.Category, name string, gathered map[string]bool) []Change {
	if len(gathered) == 0 {
		return nil
	}
	var changed []Change
	for _, it := range p.Items(c) {
		want, ok := gathered[it.ID]
		if !ok {
			continue
		}
		for _, r := range it.Records {
			ev := r.Common()
			if ev.SCC != name || ev.FalsePositive || ev.Gathered == want {
				continue
			}
			ev.Gathered = want
			changed = append(changed, Change{Category: c, ID: it.ID, Gathered: want})
		}
	}
	return changed
}

// ParseTables extracts the gathered column of each evidence table in an info
// document, keyed by section heading then identifier. The identifier is taken
// from the second column.
func ParseTables(source []byte) map[string]map[string]bool {
	doc := newMarkdown().Parser().Parse(text.NewReader(source))

	tables := make(map[string]map[string]bool)
	heading := ""
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			heading = ""
			if node.Level == 2 {
				heading = strings.TrimSpace(cellText(node, source))
			}
		case *east.Table:
			if heading == "" || heading == headingChecks {
				continue
			}
			rows := tables[heading]
			if rows == nil {
				rows = make(map[string]bool)
				tables[heading] = rows
			}
			for row := node.FirstChild(); row != nil; row = row.NextSibling() {
				if _, ok := row.(*east.TableRow); !ok {
					continue
				}
				first := row.FirstChild()
				if first == nil || first.NextSibling() == nil {
					continue
				}
				id := cellText(first.NextSibling(), source)
				if id == "" {
					continue
				}
				rows[id] = isChecked(cellText(first, source))
			}
		}
	}
	return tables
}

func isChecked(s string) bool {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	return s == checked
}

// cellText concatenates the literal text below n and resolves backslash
// escapes
func cellText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			buf.Write(t.Label(source))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(string(util.UnescapePunctuations(buf.Bytes())))
}
