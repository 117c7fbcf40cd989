// Package reconcile copies resolved evidence into the per-checklist directory
// tree and records the outcome on every owning record.
//
// Categories run in a fixed order (exceptions, documents, attestations) and
// identifiers are visited in sorted order, so repeated passes over unchanged
// sources produce the same outcomes. A failure on one item or one record is
// recorded and the pass moves on; only context cancellation stops a pass early.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/N0SH3LL/TDL-Kaizen/internal/fileutil"
	"github.com/N0SH3LL/TDL-Kaizen/internal/logger"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
	"github.com/N0SH3LL/TDL-Kaizen/internal/resolver"
)

// Options fixes the inputs of a pass
type Options struct {
	Sources     resolver.Sources
	Destination string  // project root holding <SCC>/<subdir>
	Threshold   float64 // fuzzy acceptance score; the resolver default when zero
	Extensions  []string
	// PruneDocuments removes superseded "_NN" revisions from the document
	// source before documents are matched.
	PruneDocuments bool
	// Categories restricts the pass; all categories when empty
	Categories []models.Category
	Now        func() time.Time
}

// OptionsFromSettings builds options from the program settings of a document
func OptionsFromSettings(s models.Settings) Options {
	return Options{
		Sources:     resolver.SourcesFromSettings(s),
		Destination: s.Get(models.SettingProjectDir),
	}
}

// Engine runs reconciliation passes
type Engine struct {
	opts     Options
	resolver *resolver.Resolver
	log      logger.Logger
}

// New returns an engine. A nil log discards messages.
func New(opts Options, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Categories) == 0 {
		opts.Categories = models.Categories
	}
	return &Engine{
		opts: opts,
		resolver: &resolver.Resolver{
			Sources:    opts.Sources,
			Threshold:  opts.Threshold,
			Extensions: opts.Extensions,
		},
		log: log,
	}
}

// Run reconciles every declared item of p in place. Records already updated
// stay updated when ctx is cancelled mid-pass; the returned report then covers
// the processed items and the error is ctx.Err(). The gather date setting is
// only stamped on a completed pass.
func (e *Engine) Run(ctx context.Context, p *models.Progress) (*Report, error) {
	if e.opts.Destination == "" {
		return nil, errors.New("no destination directory configured")
	}
	p.Normalize()

	report := &Report{Started: e.opts.Now()}
	for _, c := range e.ordered() {
		results, err := e.reconcileCategory(ctx, p, c)
		report.Results = append(report.Results, results...)
		if err != nil {
			report.Finished = e.opts.Now()
			return report, err
		}
	}
	report.Finished = e.opts.Now()
	p.Settings[models.SettingGatherDate] = models.FormatTimestamp(report.Finished)
	return report, nil
}

// ordered returns the configured categories in canonical order
func (e *Engine) ordered() []models.Category {
	var out []models.Category
	for _, c := range models.Categories {
		for _, want := range e.opts.Categories {
			if c == want {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func (e *Engine) reconcileCategory(ctx context.Context, p *models.Progress, c models.Category) ([]Result, error) {
	items := p.Items(c)
	e.log.LogInfo(fmt.Sprintf("Gathering %s: %d items", c, len(items)))

	if c == models.Documents && e.opts.PruneDocuments && e.opts.Sources.Documents != "" {
		removed, err := fileutil.RemoveLowerVersions(e.opts.Sources.Documents)
		if err != nil {
			e.log.LogWarn(fmt.Sprintf("Version pruning failed: %v", err))
		}
		for _, name := range removed {
			e.log.LogInfo(fmt.Sprintf("Removed lower version: %s", name))
		}
	}

	var results []Result
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, e.reconcileItem(item)...)
	}
	return results, nil
}

func (e *Engine) reconcileItem(item models.Item) []Result {
	primary := item.Primary()
	if primary == nil {
		return nil
	}
	if primary.Common().FalsePositive {
		e.log.LogDebug(fmt.Sprintf("Skipping %s %q marked as false positive", item.Category.Label(), item.ID))
		return e.skipped(item)
	}

	res, err := e.resolver.ResolveRecord(item.Category, primary)
	if err != nil {
		return e.notFound(item, err)
	}
	e.log.LogDebug(fmt.Sprintf("%s %q resolved to %s (%s, %.2f)", item.Category.Label(), item.ID, res.Path, res.Method, res.Score))

	source := filepath.Base(res.Path)
	results := make([]Result, 0, len(item.Records))
	for _, rec := range item.Records {
		ev := rec.Common()
		r := Result{Category: item.Category, ID: item.ID, SCC: ev.SCC, Source: res.Path, Method: res.Method, Score: res.Score}
		if ev.FalsePositive {
			r.Outcome = OutcomeSkipped
			results = append(results, r)
			continue
		}

		dst := filepath.Join(e.opts.Destination, models.ChecklistDir(ev.SCC), item.Category.Subdir(), source)
		if err := copyInto(res.Path, dst); errors.Is(err, fileutil.ErrNotDurable) {
			e.log.LogWarn(fmt.Sprintf("Copied %s for %s: %v", source, ev.SCC, err))
		} else if err != nil {
			ev.Gathered = false
			r.Outcome = OutcomeCopyFailed
			r.Detail = err.Error()
			e.log.LogError(fmt.Sprintf("Error copying %s for %s: %v", source, ev.SCC, err))
			results = append(results, r)
			continue
		}

		ev.MarkGathered(source, models.FormatTimestamp(e.opts.Now()))
		r.Outcome = OutcomeGathered
		e.log.LogInfo(fmt.Sprintf("Copied %s to %s", source, dst))
		results = append(results, r)
	}
	return results
}

var copyFile = fileutil.CopyFile

func copyInto(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	return copyFile(src, dst)
}

// notFound clears the gathered flag on every record that is not a false positive
func (e *Engine) notFound(item models.Item, err error) []Result {
	detail := err.Error()
	var nf *resolver.NotFoundError
	if errors.As(err, &nf) {
		detail = nf.Reason
		e.log.LogWarn(nf.Error())
	} else {
		e.log.LogError(fmt.Sprintf("Failed to resolve %s %q: %v", item.Category.Label(), item.ID, err))
	}

	results := make([]Result, 0, len(item.Records))
	for _, rec := range item.Records {
		ev := rec.Common()
		r := Result{Category: item.Category, ID: item.ID, SCC: ev.SCC, Outcome: OutcomeSkipped}
		if !ev.FalsePositive {
			ev.Gathered = false
			r.Outcome = OutcomeNotFound
			r.Detail = detail
		}
		results = append(results, r)
	}
	return results
}

func (e *Engine) skipped(item models.Item) []Result {
	results := make([]Result, 0, len(item.Records))
	for _, rec := range item.Records {
		results = append(results, Result{Category: item.Category, ID: item.ID, SCC: rec.Common().SCC, Outcome: OutcomeSkipped})
	}
	return results
}
