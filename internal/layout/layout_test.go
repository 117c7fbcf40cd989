package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

func TestBuild(t *testing.T) {
	root := t.TempDir()
	p := models.NewProgress(root)
	p.SCC["/sccs/Network_03.xlsx"] = &models.Checklist{SCC: "Network_03"}
	p.SCC["/sccs/Servers.xlsx"] = &models.Checklist{SCC: "Servers"}
	p.SCC["/sccs/Storage.xlsx"] = &models.Checklist{SCC: "Storage", DirectoryBuilt: true}

	built, err := Build(p, root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "Network"), filepath.Join(root, "Servers")}, built)

	for _, dir := range built {
		assert.Empty(t, Missing(dir))
	}
	assert.NoDirExists(t, filepath.Join(root, "Storage"))
	assert.Equal(t, []string{"Attestations", "Automated", "Exceptions and Deviations", "Manual", "Supporting Documents"},
		Missing(filepath.Join(root, "Storage")))

	assert.True(t, p.SCC["/sccs/Network_03.xlsx"].DirectoryBuilt)
	assert.True(t, p.Settings.Bool(models.SettingDirectoriesBuilt))

	again, err := Build(p, root)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(models.NewProgress(""), "")
	assert.Error(t, err)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Network"), []byte("in the way"), 0644))
	p := models.NewProgress(root)
	p.SCC["/sccs/Network.xlsx"] = &models.Checklist{SCC: "Network"}

	_, err = Build(p, root)
	assert.Error(t, err)
	assert.False(t, p.SCC["/sccs/Network.xlsx"].DirectoryBuilt)
	assert.False(t, p.Settings.Bool(models.SettingDirectoriesBuilt))
}
