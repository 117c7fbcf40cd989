package progress

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

func seeded() *models.Progress {
	p := models.NewProgress("/project")
	p.SCC["/sccs/Network_01.xlsx"] = &models.Checklist{SCC: "Network", Version: "01", DirectoryBuilt: true}
	p.BPERs["BPER0001234"] = []*models.ExceptionRecord{{
		Evidence:       models.Evidence{SCC: "Network", Gathered: true, GatheredFile: "BPER0001234.pdf", GatheredTimestamp: "2024-05-01T10:00:00Z"},
		Name:           "BPER0001234",
		ApprovalStatus: "Approved",
		ValidTo:        "2025-06-30",
		TLA:            true,
	}}
	p.Documents["Security Policy"] = []*models.SupportingDocument{{
		Evidence: models.Evidence{SCC: "Network", FalsePositive: true},
		Name:     "Security Policy",
	}}
	p.Checks["V-1001"] = &models.Check{SCC: "Network", EvidenceMethod: "Manual"}
	p.Settings[models.SettingGatherDate] = "2024-05-01T10:00:00Z"
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "progress.json"))
	p := seeded()

	require.NoError(t, s.Save(p))
	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, p, loaded)

	raw, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{\n    \"BPERs\""), "expected 4-space indented JSON")
	assert.Contains(t, string(raw), `"Gathered timestamp": "2024-05-01T10:00:00Z"`)
	assert.Contains(t, string(raw), `"Gather and Sort Date": "2024-05-01T10:00:00Z"`)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewStore(filepath.Join(dir, "missing.json")).Load()
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, errors.Is(err, ErrCorrupt))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"BPERs": {"BPER0001234": {"SCC": `), 0644))
	_, err = NewStore(bad).Load()
	assert.True(t, errors.Is(err, ErrCorrupt))

	wrongShape := filepath.Join(dir, "shape.json")
	require.NoError(t, os.WriteFile(wrongShape, []byte(`{"BPERs": {"BPER0001234": {"SCC": "Network"}}}`), 0644))
	_, err = NewStore(wrongShape).Load()
	assert.True(t, errors.Is(err, ErrCorrupt), "single record instead of list must be rejected")

	// corrupt documents are left untouched
	data, err := os.ReadFile(bad)
	require.NoError(t, err)
	assert.Equal(t, `{"BPERs": {"BPER0001234": {"SCC": `, string(data))
}

func TestInit(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", "progress.json"))

	p, err := s.Init("/project", models.Settings{models.SettingBPERDir: "/sources/bpers"})
	require.NoError(t, err)
	assert.Equal(t, "/project", p.Settings[models.SettingProjectDir])
	assert.True(t, s.Exists())

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "/sources/bpers", loaded.Settings[models.SettingBPERDir])

	_, err = s.Init("/other", nil)
	assert.ErrorIs(t, err, ErrExists)

	loaded, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "/project", loaded.Settings[models.SettingProjectDir])
}

func TestConcurrentInitCreatesOnce(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "progress.json"))

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created []string
		exists  int
	)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(id int) {
			defer wg.Done()
			dir := "/project-" + string(rune('A'+id))
			_, err := s.Init(dir, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created = append(created, dir)
			case errors.Is(err, ErrExists):
				exists++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, created, 1)
	assert.Equal(t, callers-1, exists)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, created[0], loaded.Settings[models.SettingProjectDir])
}

func TestUpdateMissingDirectory(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent", "progress.json"))
	err := s.Update(func(*models.Progress) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUpdate(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "progress.json"))
	require.NoError(t, s.Save(seeded()))

	err := s.Update(func(p *models.Progress) error {
		p.Settings[models.SettingPullInfoDate] = "2024-06-01T00:00:00Z"
		return nil
	})
	require.NoError(t, err)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01T00:00:00Z", loaded.Settings[models.SettingPullInfoDate])

	sentinel := errors.New("abort")
	err = s.Update(func(p *models.Progress) error {
		p.Settings[models.SettingPullInfoDate] = "changed"
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	loaded, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01T00:00:00Z", loaded.Settings[models.SettingPullInfoDate])
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "progress.json"))
	require.NoError(t, s.Save(models.NewProgress("/project")))

	const writers = 10
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(id int) {
			defer wg.Done()
			err := s.Update(func(p *models.Progress) error {
				p.Checks["V-"+string(rune('A'+id))] = &models.Check{SCC: "Network"}
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Checks, writers)
}
