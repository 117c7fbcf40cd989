// Package enrich fills status metadata on evidence records from their source
// files ("pull info").
//
// Each record is resolved on its own, honoring its manual link, and the
// matching extractor runs against the resolved file. Records whose file cannot
// be resolved keep their current values.
package enrich

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/N0SH3LL/TDL-Kaizen/internal/extract"
	"github.com/N0SH3LL/TDL-Kaizen/internal/logger"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
	"github.com/N0SH3LL/TDL-Kaizen/internal/resolver"
)

// Status is what happened to one record during enrichment
type Status string

const (
	StatusUpdated  Status = "updated"
	StatusNotFound Status = "not found"
	StatusFailed   Status = "extract failed"
	StatusNoDate   Status = "no date"
	StatusSkipped  Status = "skipped"
)

// Update is the enrichment outcome for one record
type Update struct {
	Category models.Category
	ID       string
	SCC      string
	Status   Status
	Source   string
	Detail   string
}

// Enricher runs the pull-info pass
type Enricher struct {
	Resolver *resolver.Resolver
	Log      logger.Logger
	Now      func() time.Time
}

// New returns an Enricher resolving against r
func New(r *resolver.Resolver, log logger.Logger) *Enricher {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Enricher{Resolver: r, Log: log, Now: time.Now}
}

// Run enriches exceptions, then attestations, then documents and stamps the
// pull info date. Cancellation between records stops the pass with ctx.Err().
func (e *Enricher) Run(ctx context.Context, p *models.Progress) ([]Update, error) {
	p.Normalize()

	var updates []Update
	passes := []struct {
		category models.Category
		apply    func(models.Item, models.Record, string) Update
	}{
		{models.Exceptions, e.exception},
		{models.Attestations, e.attestation},
		{models.Documents, e.document},
	}
	for _, pass := range passes {
		items := p.Items(pass.category)
		e.Log.LogInfo(fmt.Sprintf("Pulling info for %s: %d items", pass.category, len(items)))
		for _, item := range items {
			for _, rec := range item.Records {
				if err := ctx.Err(); err != nil {
					return updates, err
				}
				updates = append(updates, e.record(item, rec, pass.apply))
			}
		}
	}

	p.Settings[models.SettingPullInfoDate] = e.stamp()
	return updates, nil
}

func (e *Enricher) stamp() string {
	return models.FormatTimestamp(e.Now())
}

func (e *Enricher) record(item models.Item, rec models.Record, apply func(models.Item, models.Record, string) Update) Update {
	ev := rec.Common()
	u := Update{Category: item.Category, ID: item.ID, SCC: ev.SCC}
	if ev.FalsePositive {
		e.Log.LogDebug(fmt.Sprintf("Skipping %s %q marked as false positive", item.Category.Label(), item.ID))
		u.Status = StatusSkipped
		return u
	}

	res, err := e.Resolver.ResolveRecord(item.Category, rec)
	if err != nil {
		e.Log.LogWarn(fmt.Sprintf("No source for %s %q (%s): %v", item.Category.Label(), item.ID, ev.SCC, err))
		u.Status = StatusNotFound
		u.Detail = err.Error()
		return u
	}
	return apply(item, rec, res.Path)
}

func (e *Enricher) exception(item models.Item, rec models.Record, path string) Update {
	r := rec.(*models.ExceptionRecord)
	info := extract.ExceptionFile(path)
	if info.Failed() {
		e.Log.LogError(fmt.Sprintf("Error processing %s: %v", path, info.Err))
	}

	r.ValidTo = info.ValidTo.String()
	r.ApprovalStatus = info.ApprovalStatus.String()
	r.TLA = models.Flag(info.TLA)
	r.UpdatedFromFilename = filepath.Base(path)
	r.UpdatedFromTimestamp = e.stamp()
	e.Log.LogInfo(fmt.Sprintf("Updated BPER %q - Valid to: %s, Approval Status: %s, TLA: %t", item.ID, r.ValidTo, r.ApprovalStatus, info.TLA))

	u := Update{Category: item.Category, ID: item.ID, SCC: r.SCC, Status: StatusUpdated, Source: path}
	if info.Failed() {
		u.Status = StatusFailed
		u.Detail = info.Err.Error()
	}
	return u
}

func (e *Enricher) attestation(item models.Item, rec models.Record, path string) Update {
	r := rec.(*models.AttestationRecord)
	u := Update{Category: item.Category, ID: item.ID, SCC: r.SCC, Source: path}

	info := extract.AttestationFile(path)
	if info.Failed() {
		e.Log.LogError(fmt.Sprintf("Error extracting information for Attestation %q: %v", item.ID, info.Err))
		u.Status = StatusFailed
		u.Detail = info.Err.Error()
		return u
	}

	r.ApprovalStatus = info.ApprovalStatus.String()
	r.ValidTo = info.ValidTo.String()
	r.ReviewDate = info.ReviewDate.String()
	r.AssessmentDate = info.AssessmentDate.String()
	r.OverallStatus = info.OverallStatus.String()
	r.UpdatedFromFilename = filepath.Base(path)
	r.UpdatedFromTimestamp = e.stamp()
	e.Log.LogInfo(fmt.Sprintf("Updated %q with status: %s, valid to: %s, review date: %s, assessment date: %s, overall status: %s",
		item.ID, r.ApprovalStatus, r.ValidTo, r.ReviewDate, r.AssessmentDate, r.OverallStatus))

	u.Status = StatusUpdated
	return u
}

// document writes the extracted date and version to every sibling record
// that is not a false positive, since all checklists declaring a document
// share the same file.
func (e *Enricher) document(item models.Item, rec models.Record, path string) Update {
	u := Update{Category: item.Category, ID: item.ID, SCC: rec.Common().SCC, Source: path}

	info := extract.DocumentFile(path)
	if info.Failed() {
		e.Log.LogError(fmt.Sprintf("Error processing file %s: %v", path, info.Err))
		u.Status = StatusFailed
		u.Detail = info.Err.Error()
		return u
	}
	if !info.LastUpdate.Found {
		e.Log.LogDebug(fmt.Sprintf("No revision date found in %s", filepath.Base(path)))
		u.Status = StatusNoDate
		return u
	}

	ts := e.stamp()
	for _, sibling := range item.Records {
		d := sibling.(*models.SupportingDocument)
		if d.FalsePositive {
			continue
		}
		d.LastUpdate = info.LastUpdate.String()
		d.Version = info.Version
		d.UpdatedFromFilename = filepath.Base(path)
		d.UpdatedFromTimestamp = ts
	}
	e.Log.LogInfo(fmt.Sprintf("Updated %q with Last update: %s, Version: %s", item.ID, info.LastUpdate, info.Version))

	u.Status = StatusUpdated
	return u
}

// Count returns how many updates have status s
func Count(updates []Update, s Status) int {
	n := 0
	for _, u := range updates {
		if u.Status == s {
			n++
		}
	}
	return n
}
