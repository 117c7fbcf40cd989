package reconcile

import (
	"time"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
	"github.com/N0SH3LL/TDL-Kaizen/internal/resolver"
)

// Outcome is what happened to one record during a pass
type Outcome string

const (
	OutcomeGathered   Outcome = "gathered"
	OutcomeNotFound   Outcome = "not found"
	OutcomeCopyFailed Outcome = "copy failed"
	OutcomeSkipped    Outcome = "skipped"
)

// Result is the outcome for one (identifier, owning checklist) record
type Result struct {
	Category models.Category
	ID       string
	SCC      string
	Outcome  Outcome
	Source   string          // resolved source path, empty when not found
	Method   resolver.Method // how Source was chosen
	Score    float64
	Detail   string // not-found reason or copy error
}

// Report collects every record outcome of a pass in processing order
type Report struct {
	Started  time.Time
	Finished time.Time
	Results  []Result
}

// Count returns the number of results with outcome o
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Filter returns the results with outcome o
func (r *Report) Filter(o Outcome) []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome == o {
			out = append(out, res)
		}
	}
	return out
}

// Duration is the wall time of the pass
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
