package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := Path(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(".kaizen", "logs"), cfg.LogDir)
	assert.Equal(t, 0.8, cfg.MatchThreshold)
	assert.Equal(t, []string{".docx", ".doc", ".xlsx", ".xls", ".pdf"}, cfg.DocumentExtensions)
	assert.False(t, cfg.PruneLowerVersions)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, filepath.Join(".kaizen", "history.db"), cfg.History.DBPath)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.True(t, cfg.Report.HTML)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name:    "empty file keeps defaults",
			content: "",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
		{
			name: "overrides top-level keys",
			content: `log_level: DEBUG
log_dir: /var/log/kaizen
match_threshold: 0.65
document_extensions: [PDF, ".docx", " "]
prune_lower_versions: true
watch:
  debounce: 500ms
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "/var/log/kaizen", cfg.LogDir)
				assert.Equal(t, 0.65, cfg.MatchThreshold)
				assert.Equal(t, []string{".pdf", ".docx"}, cfg.DocumentExtensions)
				assert.True(t, cfg.PruneLowerVersions)
				assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
				assert.True(t, cfg.History.Enabled, "untouched section keeps defaults")
			},
		},
		{
			name: "partial nested sections merge",
			content: `history:
  enabled: false
report:
  html: false
`,
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.History.Enabled)
				assert.Equal(t, filepath.Join(".kaizen", "history.db"), cfg.History.DBPath)
				assert.False(t, cfg.Report.HTML)
			},
		},
		{
			name:    "malformed yaml",
			content: "log_level: [unterminated",
			wantErr: true,
		},
		{
			name:    "bad duration",
			content: "watch:\n  debounce: soon\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfigFromDir(writeConfig(t, tt.content))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"zero threshold", func(c *Config) { c.MatchThreshold = 0 }},
		{"threshold above one", func(c *Config) { c.MatchThreshold = 1.5 }},
		{"no extensions", func(c *Config) { c.DocumentExtensions = nil }},
		{"history without path", func(c *Config) { c.History.DBPath = "" }},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.History.Enabled = false
	cfg.History.DBPath = ""
	assert.NoError(t, cfg.Validate())
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeWithFlags(nil, nil, nil)
	assert.Equal(t, DefaultConfig(), cfg)

	level, threshold, prune := "warn", 0.9, true
	cfg.MergeWithFlags(&level, &threshold, &prune)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 0.9, cfg.MatchThreshold)
	assert.True(t, cfg.PruneLowerVersions)
}

func TestHomeAndResolvePath(t *testing.T) {
	project := t.TempDir()

	t.Setenv("KAIZEN_HOME", "")
	home, err := Home(project)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project, ".kaizen"), home)
	assert.DirExists(t, home)

	custom := filepath.Join(t.TempDir(), "state")
	t.Setenv("KAIZEN_HOME", custom)
	home, err = Home(project)
	require.NoError(t, err)
	assert.Equal(t, custom, home)

	assert.Equal(t, filepath.Join(project, ".kaizen", "history.db"), ResolvePath(project, filepath.Join(".kaizen", "history.db")))
	assert.Equal(t, "/abs/history.db", ResolvePath(project, "/abs/history.db"))
	assert.Equal(t, ":memory:", ResolvePath(project, ":memory:"))
	assert.Equal(t, "", ResolvePath(project, ""))
}

func TestSaveRoundTrip(t *testing.T) {
	path := Path(t.TempDir())
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	cfg.MatchThreshold = 0.7
	cfg.History.Enabled = false
	cfg.Watch.Debounce = 1500 * time.Millisecond

	require.NoError(t, cfg.Save(path))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
