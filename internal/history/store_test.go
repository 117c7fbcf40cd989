package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/N0SH3LL/TDL-Kaizen/internal/enrich"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
	"github.com/N0SH3LL/TDL-Kaizen/internal/reconcile"
	"github.com/N0SH3LL/TDL-Kaizen/internal/resolver"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		dbPath  string
		wantErr bool
	}{
		{"file database with parent dirs", filepath.Join(t.TempDir(), "a", "b", "history.db"), false},
		{"in-memory database", ":memory:", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.dbPath)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()

			v, err := s.LatestVersion(context.Background())
			require.NoError(t, err)
			assert.Equal(t, len(migrations), v)
		})
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.ApplyMigrations(context.Background()))
}

func TestRunLifecycle(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	run, err := s.BeginRun(ctx, KindGather, "/project/progress.json")
	require.NoError(t, err)
	_, err = uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.True(t, run.Running())

	events := []Event{
		{Category: models.Exceptions, ItemID: "BPER0001234", SCC: "Network", Outcome: "gathered", Source: "/src/BPER0001234.pdf", Method: "exact", Score: 1},
		{Category: models.Documents, ItemID: "Security Policy", SCC: "Network", Outcome: "not found", Detail: "no close match"},
		{Category: models.Documents, ItemID: "Security Policy", SCC: "Windows", Outcome: "skipped"},
	}
	require.NoError(t, s.Record(ctx, run.ID, events, "gathered"))
	require.NoError(t, s.FinishRun(ctx, run, errors.New("interrupted")))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, got.Running())
	assert.Equal(t, KindGather, got.Kind)
	assert.Equal(t, "/project/progress.json", got.ProgressFile)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, "interrupted", got.Error)

	stored, err := s.RunEvents(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, models.Exceptions, stored[0].Category)
	assert.Equal(t, "exact", stored[0].Method)
	assert.InDelta(t, 1.0, stored[0].Score, 1e-9)
	assert.Equal(t, "no close match", stored[1].Detail)
	assert.False(t, stored[0].Recorded.IsZero())

	assert.Error(t, s.Record(ctx, "missing-run", events), "unknown run ids are rejected")
	assert.NoError(t, s.Record(ctx, run.ID, nil))
}

func TestRecentRunsAndItemHistory(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		s.now = func() time.Time { return at }
		run, err := s.BeginRun(ctx, KindPull, "progress.json")
		require.NoError(t, err)
		require.NoError(t, s.Record(ctx, run.ID, []Event{
			{Category: models.Attestations, ItemID: "123456", SCC: "Network", Outcome: "updated"},
		}, "updated"))
		require.NoError(t, s.FinishRun(ctx, run, nil))
		ids = append(ids, run.ID)
	}

	runs, err := s.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Equal(t, base.Add(2*time.Hour), runs[0].Started)

	hist, err := s.ItemHistory(ctx, models.Attestations, "123456", 0)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, ids[2], hist[0].RunID)

	none, err := s.ItemHistory(ctx, models.Exceptions, "123456", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordGatherAndPull(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	report := &reconcile.Report{Results: []reconcile.Result{
		{Category: models.Exceptions, ID: "BPER0001234", SCC: "Network", Outcome: reconcile.OutcomeGathered, Method: resolver.MethodFuzzy, Score: 0.84},
		{Category: models.Exceptions, ID: "BPER0001234", SCC: "Windows", Outcome: reconcile.OutcomeCopyFailed, Detail: "permission denied"},
	}}
	run, err := s.RecordGather(ctx, "progress.json", report, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Failed)
	assert.False(t, run.Running())

	run, err = s.RecordPull(ctx, "progress.json", []enrich.Update{
		{Category: models.Documents, ID: "Security Policy", SCC: "Network", Status: enrich.StatusUpdated},
		{Category: models.Documents, ID: "Security Policy", SCC: "Windows", Status: enrich.StatusSkipped},
		{Category: models.Documents, ID: "Firewall Rules", SCC: "Network", Status: enrich.StatusNoDate},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindPull, run.Kind)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, 1, run.Failed)

	hist, err := s.ItemHistory(ctx, models.Exceptions, "BPER0001234", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "fuzzy", hist[1].Method)
}
