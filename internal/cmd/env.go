package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/N0SH3LL/TDL-Kaizen/internal/config"
	"github.com/N0SH3LL/TDL-Kaizen/internal/history"
	"github.com/N0SH3LL/TDL-Kaizen/internal/logger"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
	"github.com/N0SH3LL/TDL-Kaizen/internal/progress"
)

// env is the state shared by every subcommand: the progress store, the
// loaded configuration and a console logger on stderr.
type env struct {
	store   *progress.Store
	baseDir string // directory holding the progress document
	cfg     *config.Config
	console *logger.ConsoleLogger
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	progressPath, _ := cmd.Flags().GetString("progress")
	abs, err := filepath.Abs(progressPath)
	if err != nil {
		return nil, fmt.Errorf("resolve progress path: %w", err)
	}
	return loadEnvAt(cmd, abs)
}

func loadEnvAt(cmd *cobra.Command, progressPath string) (*env, error) {
	baseDir := filepath.Dir(progressPath)

	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromDir(baseDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level := "debug"
		cfg.MergeWithFlags(&level, nil, nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &env{
		store:   progress.NewStore(progressPath),
		baseDir: baseDir,
		cfg:     cfg,
		console: logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel),
	}, nil
}

// load reads the progress document with a hint when it has not been created
func (e *env) load() (*models.Progress, error) {
	p, err := e.store.Load()
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no progress document at %s (run 'kaizen init' first): %w", e.store.Path, err)
	}
	return p, err
}

// update wraps store.Update with the same missing-document hint
func (e *env) update(fn func(*models.Progress) error) error {
	err := e.store.Update(fn)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no progress document at %s (run 'kaizen init' first): %w", e.store.Path, err)
	}
	return err
}

// projectDir is the destination root for checklist directories
func (e *env) projectDir(p *models.Progress) string {
	if dir := p.Settings.Get(models.SettingProjectDir); dir != "" {
		return dir
	}
	return e.baseDir
}

// runLogger fans out to the console and a per-run log file. The returned
// close func must be called when the pass ends. A log file that cannot be
// created only costs a warning.
func (e *env) runLogger() (logger.Logger, func()) {
	fileLog, err := logger.NewFileLogger(config.ResolvePath(e.baseDir, e.cfg.LogDir), e.cfg.LogLevel)
	if err != nil {
		e.console.LogWarn(fmt.Sprintf("Run log disabled: %v", err))
		return e.console, func() {}
	}
	e.console.LogDebug(fmt.Sprintf("Run log: %s", fileLog.Path()))
	return logger.Multi(e.console, fileLog), func() { fileLog.Close() }
}

// openHistory returns nil when history is disabled
func (e *env) openHistory(create bool) (*history.Store, error) {
	if !e.cfg.History.Enabled {
		return nil, nil
	}
	path := config.ResolvePath(e.baseDir, e.cfg.History.DBPath)
	if !create {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil
		}
	}
	return history.Open(path)
}
