package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/N0SH3LL/TDL-Kaizen/internal/fileutil"
	"github.com/N0SH3LL/TDL-Kaizen/internal/logger"
	"github.com/N0SH3LL/TDL-Kaizen/internal/similarity"
)

// HistoryConfig controls the run history database
type HistoryConfig struct {
	// Enabled records every gather and pull pass
	Enabled bool `yaml:"enabled"`

	// DBPath is the database file, relative to the project directory unless absolute
	DBPath string `yaml:"db_path"`
}

// WatchConfig controls watch mode
type WatchConfig struct {
	// Debounce is the quiet period before a batch of source changes triggers a pass
	Debounce time.Duration `yaml:"debounce"`
}

// ReportConfig controls info document generation
type ReportConfig struct {
	// HTML also renders each info document to HTML
	HTML bool `yaml:"html"`
}

// Config represents kaizen configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written
	LogDir string `yaml:"log_dir"`

	// MatchThreshold is the minimum similarity for a fuzzy document match
	MatchThreshold float64 `yaml:"match_threshold"`

	// DocumentExtensions lists the file extensions considered as document candidates
	DocumentExtensions []string `yaml:"document_extensions"`

	// PruneLowerVersions deletes superseded "_NN" document revisions during gather
	PruneLowerVersions bool `yaml:"prune_lower_versions"`

	History HistoryConfig `yaml:"history"`
	Watch   WatchConfig   `yaml:"watch"`
	Report  ReportConfig  `yaml:"report"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:           "info",
		LogDir:             logger.DefaultLogDir,
		MatchThreshold:     similarity.DefaultThreshold,
		DocumentExtensions: append([]string(nil), fileutil.DocumentExtensions...),
		PruneLowerVersions: false,
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(DirName, "history.db"),
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
		Report: ReportConfig{
			HTML: true,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// A missing file yields the defaults; a malformed file is an error.
// Keys present in the file override the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// durations are read as strings so "2s" style values parse
	type yamlConfig struct {
		LogLevel           string        `yaml:"log_level"`
		LogDir             string        `yaml:"log_dir"`
		MatchThreshold     *float64      `yaml:"match_threshold"`
		DocumentExtensions []string      `yaml:"document_extensions"`
		PruneLowerVersions *bool         `yaml:"prune_lower_versions"`
		History            HistoryConfig `yaml:"history"`
		Watch              struct {
			Debounce string `yaml:"debounce"`
		} `yaml:"watch"`
		Report ReportConfig `yaml:"report"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(yamlCfg.LogLevel))
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.MatchThreshold != nil {
		cfg.MatchThreshold = *yamlCfg.MatchThreshold
	}
	if len(yamlCfg.DocumentExtensions) > 0 {
		cfg.DocumentExtensions = normalizeExtensions(yamlCfg.DocumentExtensions)
	}
	if yamlCfg.PruneLowerVersions != nil {
		cfg.PruneLowerVersions = *yamlCfg.PruneLowerVersions
	}
	if yamlCfg.Watch.Debounce != "" {
		d, err := time.ParseDuration(yamlCfg.Watch.Debounce)
		if err != nil {
			return nil, fmt.Errorf("invalid watch.debounce %q: %w", yamlCfg.Watch.Debounce, err)
		}
		cfg.Watch.Debounce = d
	}

	// nested sections only override the keys they actually contain
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, ok := rawMap["history"].(map[string]interface{}); ok {
			if _, exists := section["enabled"]; exists {
				cfg.History.Enabled = yamlCfg.History.Enabled
			}
			if _, exists := section["db_path"]; exists {
				cfg.History.DBPath = yamlCfg.History.DBPath
			}
		}
		if section, ok := rawMap["report"].(map[string]interface{}); ok {
			if _, exists := section["html"]; exists {
				cfg.Report.HTML = yamlCfg.Report.HTML
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads <dir>/.kaizen/config.yaml
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(Path(dir))
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// MergeWithFlags applies CLI overrides; nil values leave the config unchanged
func (c *Config) MergeWithFlags(logLevel *string, threshold *float64, prune *bool) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if threshold != nil {
		c.MatchThreshold = *threshold
	}
	if prune != nil {
		c.PruneLowerVersions = *prune
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if !logger.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: %s", c.LogLevel, strings.Join(logger.ValidLevels, ", "))
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("match_threshold must be in (0, 1], got %v", c.MatchThreshold)
	}
	if len(c.DocumentExtensions) == 0 {
		return fmt.Errorf("document_extensions cannot be empty")
	}
	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0, got %v", c.Watch.Debounce)
	}
	return nil
}

// fileConfig is the on-disk shape written by Save
type fileConfig struct {
	LogLevel           string        `yaml:"log_level"`
	LogDir             string        `yaml:"log_dir"`
	MatchThreshold     float64       `yaml:"match_threshold"`
	DocumentExtensions []string      `yaml:"document_extensions"`
	PruneLowerVersions bool          `yaml:"prune_lower_versions"`
	History            HistoryConfig `yaml:"history"`
	Watch              struct {
		Debounce string `yaml:"debounce"`
	} `yaml:"watch"`
	Report ReportConfig `yaml:"report"`
}

// Save writes c to path as YAML, creating the parent directory
func (c *Config) Save(path string) error {
	out := fileConfig{
		LogLevel:           c.LogLevel,
		LogDir:             c.LogDir,
		MatchThreshold:     c.MatchThreshold,
		DocumentExtensions: c.DocumentExtensions,
		PruneLowerVersions: c.PruneLowerVersions,
		History:            c.History,
		Report:             c.Report,
	}
	out.Watch.Debounce = c.Watch.Debounce.String()

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
