package models

import (
	"fmt"
	"sort"
)

// Progress is the single persisted document holding all accumulated project state.
// Every identifier maps to an ordered list of records, one per owning checklist.
type Progress struct {
	BPERs        map[string][]*ExceptionRecord    `json:"BPERs"`
	Attestations map[string][]*AttestationRecord  `json:"Attestations"`
	Documents    map[string][]*SupportingDocument `json:"Documents"`
	SCC          map[string]*Checklist            `json:"SCC"`
	Checks       map[string]*Check                `json:"Checks"`
	Settings     Settings                         `json:"Program Settings"`
}

// NewProgress returns an empty document for a project rooted at projectDir
func NewProgress(projectDir string) *Progress {
	p := &Progress{Settings: DefaultSettings(projectDir)}
	p.Normalize()
	return p
}

// Normalize replaces nil collections with empty ones so callers never need nil checks
func (p *Progress) Normalize() {
	if p.BPERs == nil {
		p.BPERs = make(map[string][]*ExceptionRecord)
	}
	if p.Attestations == nil {
		p.Attestations = make(map[string][]*AttestationRecord)
	}
	if p.Documents == nil {
		p.Documents = make(map[string][]*SupportingDocument)
	}
	if p.SCC == nil {
		p.SCC = make(map[string]*Checklist)
	}
	if p.Checks == nil {
		p.Checks = make(map[string]*Check)
	}
	if p.Settings == nil {
		p.Settings = make(Settings)
	}
	compact(p.BPERs)
	compact(p.Attestations)
	compact(p.Documents)
	for path, c := range p.SCC {
		if c == nil {
			delete(p.SCC, path)
		}
	}
	for id, c := range p.Checks {
		if c == nil {
			delete(p.Checks, id)
		}
	}
}

// compact drops null entries and identifiers left without records
func compact[T any](m map[string][]*T) {
	for id, recs := range m {
		kept := recs[:0]
		for _, r := range recs {
			if r != nil {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(m, id)
			continue
		}
		m[id] = kept
	}
}

// Item is one declared identifier together with every checklist's copy of its record
type Item struct {
	Category Category
	ID       string
	Records  []Record
}

// Primary returns the first record, which drives skip and manual-link decisions
func (it Item) Primary() Record {
	if len(it.Records) == 0 {
		return nil
	}
	return it.Records[0]
}

// Items returns the identifiers of a category in sorted order with their records.
// The records are the live pointers stored in the document.
func (p *Progress) Items(c Category) []Item {
	switch c {
	case Exceptions:
		return collect(c, p.BPERs)
	case Documents:
		return collect(c, p.Documents)
	case Attestations:
		return collect(c, p.Attestations)
	default:
		return nil
	}
}

func collect[T Record](c Category, m map[string][]T) []Item {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		recs := make([]Record, 0, len(m[id]))
		for _, r := range m[id] {
			recs = append(recs, r)
		}
		items = append(items, Item{Category: c, ID: id, Records: recs})
	}
	return items
}

// ChecklistNames returns the distinct checklist names in sorted order
func (p *Progress) ChecklistNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range p.SCC {
		if c == nil || c.SCC == "" || seen[c.SCC] {
			continue
		}
		seen[c.SCC] = true
		names = append(names, c.SCC)
	}
	sort.Strings(names)
	return names
}

// ChecklistSeed is the output of the spreadsheet ingester for one checklist file.
// Records are keyed by identifier and carry default unset fields.
type ChecklistSeed struct {
	Path         string                         `json:"path"`
	Checklist    Checklist                      `json:"checklist"`
	BPERs        map[string]*ExceptionRecord    `json:"BPERs"`
	Documents    map[string]*SupportingDocument `json:"Documents"`
	Attestations map[string]*AttestationRecord  `json:"Attestations"`
	Checks       map[string]*Check              `json:"Checks"`
}

// ImportChecklist adds a checklist and its declared items. Any records already
// owned by the same checklist are removed first so a re-import starts clean.
func (p *Progress) ImportChecklist(seed ChecklistSeed) error {
	name := seed.Checklist.SCC
	if name == "" {
		return fmt.Errorf("checklist seed %q has no SCC name", seed.Path)
	}
	if seed.Path == "" {
		return fmt.Errorf("checklist seed %q has no source path", name)
	}
	for id := range seed.BPERs {
		if !Exceptions.ValidID(id) {
			return fmt.Errorf("checklist %s: invalid BPER identifier %q", name, id)
		}
	}
	for id := range seed.Attestations {
		if !Attestations.ValidID(id) {
			return fmt.Errorf("checklist %s: invalid attestation number %q", name, id)
		}
	}
	for id := range seed.Documents {
		if !Documents.ValidID(id) {
			return fmt.Errorf("checklist %s: empty document name", name)
		}
	}

	p.Normalize()
	p.RemoveChecklist(name)

	checklist := seed.Checklist
	p.SCC[seed.Path] = &checklist

	for _, id := range sortedKeys(seed.BPERs) {
		r := seedRecord[ExceptionRecord](seed.BPERs[id], name)
		r.Name = id
		p.BPERs[id] = append(p.BPERs[id], r)
	}
	for _, id := range sortedKeys(seed.Documents) {
		r := seedRecord[SupportingDocument](seed.Documents[id], name)
		r.Name = id
		p.Documents[id] = append(p.Documents[id], r)
	}
	for _, id := range sortedKeys(seed.Attestations) {
		r := seedRecord[AttestationRecord](seed.Attestations[id], name)
		r.Number = id
		p.Attestations[id] = append(p.Attestations[id], r)
	}
	for id, c := range seed.Checks {
		check := Check{SCC: name}
		if c != nil {
			check.EvidenceMethod = c.EvidenceMethod
		}
		p.Checks[id] = &check
	}
	return nil
}

func seedRecord[T any, PT interface {
	*T
	Record
}](r *T, scc string) PT {
	cp := new(T)
	if r != nil {
		*cp = *r
	}
	rec := PT(cp)
	ev := rec.Common()
	ev.SCC = scc
	ev.Gathered = false
	ev.GatheredFile = ""
	ev.GatheredTimestamp = ""
	return rec
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RemoveChecklist prunes every record, descriptor and check owned by the named
// checklist. Identifiers left without records are dropped. Returns the number of
// evidence records removed.
func (p *Progress) RemoveChecklist(name string) int {
	p.Normalize()
	removed := pruneOwner(p.BPERs, name)
	removed += pruneOwner(p.Documents, name)
	removed += pruneOwner(p.Attestations, name)

	for path, c := range p.SCC {
		if c == nil || c.SCC == name {
			delete(p.SCC, path)
		}
	}
	for id, c := range p.Checks {
		if c == nil || c.SCC == name {
			delete(p.Checks, id)
		}
	}
	return removed
}

func pruneOwner[T Record](m map[string][]T, name string) int {
	removed := 0
	for id, recs := range m {
		kept := recs[:0]
		for _, r := range recs {
			if r.Common().SCC == name {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(m, id)
			continue
		}
		m[id] = kept
	}
	return removed
}

// matching returns the records of id owned by scc, or all records when scc is empty
func (p *Progress) matching(c Category, id, scc string) ([]Record, error) {
	var item *Item
	for _, it := range p.Items(c) {
		if it.ID == id {
			it := it
			item = &it
			break
		}
	}
	if item == nil {
		return nil, fmt.Errorf("%s %q is not declared by any checklist", c.Label(), id)
	}
	if scc == "" {
		return item.Records, nil
	}
	var out []Record
	for _, r := range item.Records {
		if r.Common().SCC == scc {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s %q is not declared by checklist %q", c.Label(), id, scc)
	}
	return out, nil
}

// MarkFalsePositive flags records of id so reconciliation never touches them again.
// An empty scc flags every checklist's copy.
func (p *Progress) MarkFalsePositive(c Category, id, scc string) (int, error) {
	recs, err := p.matching(c, id, scc)
	if err != nil {
		return 0, err
	}
	for _, r := range recs {
		r.Common().FalsePositive = true
	}
	return len(recs), nil
}

// LinkManually stores an override source path on records of id.
// An empty scc links every checklist's copy.
func (p *Progress) LinkManually(c Category, id, scc, path string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("manual link path is empty")
	}
	recs, err := p.matching(c, id, scc)
	if err != nil {
		return 0, err
	}
	for _, r := range recs {
		r.Common().ManuallyLinked = path
	}
	return len(recs), nil
}

// CategorySummary counts gathered records of one category, false positives excluded
type CategorySummary struct {
	Category Category
	Gathered int
	Total    int
}

// Percent returns the gathered share in [0,100]
func (s CategorySummary) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Gathered) * 100 / float64(s.Total)
}

// Summary returns per-category gathered counts in dashboard order
func (p *Progress) Summary() []CategorySummary {
	order := []Category{Documents, Attestations, Exceptions}
	out := make([]CategorySummary, 0, len(order))
	for _, c := range order {
		s := CategorySummary{Category: c}
		for _, it := range p.Items(c) {
			for _, r := range it.Records {
				ev := r.Common()
				if ev.FalsePositive {
					continue
				}
				s.Total++
				if ev.Gathered {
					s.Gathered++
				}
			}
		}
		out = append(out, s)
	}
	return out
}

// Outstanding is a record that still lacks evidence
type Outstanding struct {
	Category Category
	ID       string
	SCC      string
}

// String renders the entry as "<item> - <checklist>"
func (o Outstanding) String() string {
	return o.ID + " - " + o.SCC
}

// NotGathered lists every non-false-positive record that has not been gathered
func (p *Progress) NotGathered() []Outstanding {
	var out []Outstanding
	for _, c := range []Category{Attestations, Exceptions, Documents} {
		for _, it := range p.Items(c) {
			for _, r := range it.Records {
				ev := r.Common()
				if ev.Gathered || ev.FalsePositive {
					continue
				}
				out = append(out, Outstanding{Category: c, ID: it.ID, SCC: ev.SCC})
			}
		}
	}
	return out
}
