// Package watch reruns a pass whenever the evidence source directories change.
//
// Events are collected into a batch until the directories have been quiet for
// the debounce delay. A settled batch triggers one pass. When the progress
// document is locked by another writer the batch is held and retried after
// another delay.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/N0SH3LL/TDL-Kaizen/internal/filelock"
	"github.com/N0SH3LL/TDL-Kaizen/internal/logger"
)

// DefaultDebounce is the quiet period before a batch is handed to the pass
const DefaultDebounce = 2 * time.Second

// PassFunc runs one pass for a settled batch of changed paths
type PassFunc func(ctx context.Context, changed []string) error

// Watcher watches a fixed set of source directories
type Watcher struct {
	watcher  *fsnotify.Watcher
	dirs     []string
	debounce time.Duration
	pass     PassFunc
	log      logger.Logger

	// Lock, when set, is tried before each pass; a held lock postpones the batch
	Lock *filelock.FileLock
}

// New watches every existing directory in dirs. Missing directories are
// logged and skipped; at least one must exist.
func New(dirs []string, debounce time.Duration, pass PassFunc, log logger.Logger) (*Watcher, error) {
	if pass == nil {
		return nil, fmt.Errorf("no pass to run")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{watcher: fw, debounce: debounce, pass: pass, log: log}
	seen := make(map[string]bool)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		seen[dir] = true

		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			log.LogWarn(fmt.Sprintf("Not watching %s: directory not found", dir))
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dirs = append(w.dirs, dir)
	}
	if len(w.dirs) == 0 {
		fw.Close()
		return nil, fmt.Errorf("none of the source directories exist")
	}
	return w, nil
}

// Dirs returns the directories being watched
func (w *Watcher) Dirs() []string {
	return w.dirs
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks until ctx is done, running the pass for every settled batch.
// Pass errors are logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.log.LogDebug(fmt.Sprintf("Change detected: %s %s", ev.Op, ev.Name))
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.LogWarn(fmt.Sprintf("Watcher error: %v", err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			if w.busy() {
				w.log.LogInfo("Progress document is locked by another writer, postponing pass")
				timer.Reset(w.debounce)
				continue
			}

			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)

			w.log.LogInfo(fmt.Sprintf("Running pass for %d changed file(s)", len(changed)))
			if err := w.pass(ctx, changed); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.log.LogError(fmt.Sprintf("Pass failed: %v", err))
			}
		}
	}
}

// busy tries the lock without holding it; the pass takes it again itself
func (w *Watcher) busy() bool {
	if w.Lock == nil {
		return false
	}
	locked, err := w.Lock.TryLock()
	if err != nil {
		w.log.LogWarn(fmt.Sprintf("Lock check failed: %v", err))
		return true
	}
	if !locked {
		return true
	}
	if err := w.Lock.Unlock(); err != nil {
		w.log.LogWarn(fmt.Sprintf("Lock release failed: %v", err))
	}
	return false
}

// relevant drops chmod events and editor or copy temporaries
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(ev.Name)
	switch {
	case strings.HasPrefix(name, "."), strings.HasPrefix(name, "~$"):
		return false
	case strings.HasSuffix(name, ".lock"), strings.HasSuffix(name, ".tmp"):
		return false
	}
	return true
}
