package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

var linePrefix = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] `)

func TestConsoleLoggerLevels(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"trace", []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"", []string{"INFO", "WARN", "ERROR"}},
		{"bogus", []string{"INFO", "WARN", "ERROR"}},
		{"WARN", []string{"WARN", "ERROR"}},
		{"error", []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			cl := NewConsoleLogger(&buf, tt.level)
			cl.LogTrace("t")
			cl.LogDebug("d")
			cl.LogInfo("i")
			cl.LogWarn("w")
			cl.LogError("e")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Len(t, lines, len(tt.want))
			for i, line := range lines {
				assert.Regexp(t, linePrefix, line)
				assert.Contains(t, line, "["+tt.want[i]+"]")
			}
		})
	}
}

func TestConsoleLoggerNilWriterAndNoColor(t *testing.T) {
	NewConsoleLogger(nil, "debug").LogError("dropped")

	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")
	assert.False(t, IsTerminal(&buf))
	cl.LogInfo("BPER0001234 gathered")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestConsoleLoggerStagesAndSummary(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")

	cl.LogStageStart("BPERs", 3)
	cl.LogStageComplete("BPERs", 90*time.Second)
	cl.LogSummary([]models.CategorySummary{
		{Category: models.Documents, Gathered: 1, Total: 2},
		{Category: models.Exceptions, Gathered: 4, Total: 4},
	})

	out := buf.String()
	assert.Contains(t, out, "Starting BPERs: 3 items")
	assert.Contains(t, out, "BPERs complete (1m30s)")
	assert.Contains(t, out, "=== Evidence Summary ===")
	assert.Contains(t, out, "1/2 (50%)")
	assert.Contains(t, out, "[====================] 4/4 (100%)")

	buf.Reset()
	quiet := NewConsoleLogger(&buf, "warn")
	quiet.LogStageStart("BPERs", 1)
	quiet.LogSummary(nil)
	assert.Empty(t, buf.String())
}

func TestFileLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	fl, err := NewFileLogger(dir, "debug")
	require.NoError(t, err)

	fl.LogTrace("hidden")
	fl.LogDebug("resolving Security Policy")
	fl.LogStageStart("documents", 2)
	fl.LogSummary([]models.CategorySummary{{Category: models.Attestations, Gathered: 1, Total: 4}})
	require.NoError(t, fl.Close())
	require.NoError(t, fl.Close(), "second close is a no-op")
	fl.LogInfo("after close is dropped")

	assert.Regexp(t, `run-\d{8}-\d{6}\.log$`, fl.Path())
	data, err := os.ReadFile(fl.Path())
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "=== Kaizen Run Log ===")
	assert.Contains(t, content, "[DEBUG] resolving Security Policy")
	assert.Contains(t, content, "=== DOCUMENTS (2 items) ===")
	assert.Contains(t, content, "Attestations: 1/4 gathered (25%)")
	assert.NotContains(t, content, "hidden")
	assert.NotContains(t, content, "after close")

	target, err := os.Readlink(filepath.Join(dir, "latest.log"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(fl.Path()), target)
}

func TestMulti(t *testing.T) {
	var a, b bytes.Buffer
	m := Multi(NewConsoleLogger(&a, "info"), nil, NewConsoleLogger(&b, "error"))

	m.LogDebug("d")
	m.LogInfo("i")
	m.LogWarn("w")
	m.LogError("e")

	assert.Equal(t, 3, strings.Count(a.String(), "\n"))
	assert.Equal(t, 1, strings.Count(b.String(), "\n"))

	var _ Logger = NewNoOpLogger()
	NewNoOpLogger().LogError("ignored")
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		gathered int
		prefix   string
		want     string
		percent  int
	}{
		{"untouched", 4, 0, "", "[        ] 0/4 (0%)", 0},
		{"half", 4, 2, "", "[====    ] 2/4 (50%)", 50},
		{"clamped", 4, 9, "BPERs: ", "BPERs: [========] 9/4 (100%)", 100},
		{"no items", 0, 0, "Documents: ", "Documents: no items", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, 8, false)
			pb.SetPrefix(tt.prefix)
			pb.Update(tt.gathered)
			assert.Equal(t, tt.want, pb.Render())
			assert.Equal(t, tt.percent, pb.Percentage())
		})
	}

	assert.Equal(t, "[          ] 0/1 (0%)", NewProgressBar(1, 0, false).Render())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", formatDuration(5*time.Second))
	assert.Equal(t, "2m", formatDuration(2*time.Minute))
	assert.Equal(t, "1m30s", formatDuration(90*time.Second))
	assert.Equal(t, "2h15m", formatDuration(2*time.Hour+15*time.Minute))
	assert.Equal(t, "1h", formatDuration(time.Hour))
}

func TestIsValidLevel(t *testing.T) {
	assert.True(t, IsValidLevel(" Debug "))
	assert.False(t, IsValidLevel("verbose"))
}
