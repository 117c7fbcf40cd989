package history

import (
	"context"
	"fmt"

	"github.com/N0SH3LL/TDL-Kaizen/internal/enrich"
	"github.com/N0SH3LL/TDL-Kaizen/internal/reconcile"
)

// FromReport converts gather results to events
func FromReport(report *reconcile.Report) []Event {
	if report == nil {
		return nil
	}
	events := make([]Event, 0, len(report.Results))
	for _, r := range report.Results {
		events = append(events, Event{
			Category: r.Category,
			ItemID:   r.ID,
			SCC:      r.SCC,
			Outcome:  string(r.Outcome),
			Source:   r.Source,
			Method:   string(r.Method),
			Score:    r.Score,
			Detail:   r.Detail,
		})
	}
	return events
}

// FromUpdates converts pull-info updates to events
func FromUpdates(updates []enrich.Update) []Event {
	events := make([]Event, 0, len(updates))
	for _, u := range updates {
		events = append(events, Event{
			Category: u.Category,
			ItemID:   u.ID,
			SCC:      u.SCC,
			Outcome:  string(u.Status),
			Source:   u.Source,
			Detail:   u.Detail,
		})
	}
	return events
}

// RecordGather stores a gather pass as one finished run
func (s *Store) RecordGather(ctx context.Context, progressFile string, report *reconcile.Report, runErr error) (*Run, error) {
	return s.recordPass(ctx, KindGather, progressFile, FromReport(report), runErr, string(reconcile.OutcomeGathered))
}

// RecordPull stores a pull-info pass as one finished run
func (s *Store) RecordPull(ctx context.Context, progressFile string, updates []enrich.Update, runErr error) (*Run, error) {
	return s.recordPass(ctx, KindPull, progressFile, FromUpdates(updates), runErr, string(enrich.StatusUpdated))
}

func (s *Store) recordPass(ctx context.Context, kind, progressFile string, events []Event, runErr error, succeeded string) (*Run, error) {
	run, err := s.BeginRun(ctx, kind, progressFile)
	if err != nil {
		return nil, err
	}
	if err := s.Record(ctx, run.ID, events, succeeded); err != nil {
		return run, fmt.Errorf("record %s events: %w", kind, err)
	}
	if err := s.FinishRun(ctx, run, runErr); err != nil {
		return run, err
	}
	return s.GetRun(ctx, run.ID)
}
