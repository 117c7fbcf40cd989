// Package progress persists the project progress document.
//
// The document lives in one JSON file. Saves go through a sibling lock file and
// a temp-file rename so a crash never leaves a half-written document behind.
// A document that fails to decode is reported as ErrCorrupt and never repaired.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/N0SH3LL/TDL-Kaizen/internal/filelock"
	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// DefaultFile is the progress document name used when none is given
const DefaultFile = "progress.json"

// lockTimeout bounds how long Update waits for another writer
const lockTimeout = 30 * time.Second

// ErrCorrupt marks a progress document that exists but cannot be decoded
var ErrCorrupt = errors.New("progress document is corrupt")

// ErrExists is returned by Init when a document is already present
var ErrExists = errors.New("progress document already exists")

// Store reads and writes one progress document
type Store struct {
	Path string
}

// NewStore returns a store for the document at path
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultFile
	}
	return &Store{Path: path}
}

// Exists reports whether the document file is present
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Load reads the document. A missing file yields an error matching
// os.ErrNotExist; undecodable content yields an error matching ErrCorrupt.
func (s *Store) Load() (*models.Progress, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read progress document: %w", err)
	}
	return Decode(data, s.Path)
}

// Decode parses a progress document. name is used in error messages only.
func Decode(data []byte, name string) (*models.Progress, error) {
	var p models.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	p.Normalize()
	return &p, nil
}

// Encode renders the document as indented JSON
func Encode(p *models.Progress) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode progress document: %w", err)
	}
	return data, nil
}

// Save writes the document atomically while holding the document lock
func (s *Store) Save(p *models.Progress) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if err := filelock.LockAndWrite(s.Path, data); err != nil {
		return fmt.Errorf("failed to save progress document: %w", err)
	}
	return nil
}

// Init creates a fresh document for projectDir with settings layered over the
// defaults. The existence check and the write happen under the document lock,
// so of two concurrent calls exactly one succeeds; the other gets ErrExists.
func (s *Store) Init(projectDir string, settings models.Settings) (*models.Progress, error) {
	p := models.NewProgress(projectDir)
	maps.Copy(p.Settings, settings)
	data, err := Encode(p)
	if err != nil {
		return nil, err
	}

	lock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	if s.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrExists, s.Path)
	}
	if err := filelock.AtomicWrite(s.Path, data); err != nil {
		return nil, fmt.Errorf("failed to save progress document: %w", err)
	}
	return p, nil
}

// lock takes the document lock, creating the document's directory first so
// the sibling lock file can be opened
func (s *Store) lock() (*filelock.FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", s.Path, err)
	}
	lock := filelock.NewFileLock(filelock.PathFor(s.Path))
	if err := lock.LockWithTimeout(lockTimeout); err != nil {
		return nil, err
	}
	return lock, nil
}

// Update loads the document, applies fn and saves the result, all under the
// document lock so concurrent writers cannot interleave. The document is not
// saved when fn returns an error.
func (s *Store) Update(fn func(*models.Progress) error) error {
	lock, err := s.lock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	p, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if err := filelock.AtomicWrite(s.Path, data); err != nil {
		return fmt.Errorf("failed to save progress document: %w", err)
	}
	return nil
}
