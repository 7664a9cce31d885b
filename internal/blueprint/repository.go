package blueprint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Repository owns a blueprint document on disk. Opening it takes an
// advisory lock on a sidecar file so that two pipeline runs cannot mutate
// the same project version concurrently; the document itself is rewritten
// atomically (temp file + rename) on every save.
type Repository struct {
	path string
	lock *flock.Flock
}

// Open locks and returns the repository for the blueprint at path. The
// blueprint file must already exist; authoring is a separate concern.
func Open(path string) (*Repository, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("blueprint not found at %s: %w", path, err)
	}
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking blueprint %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("blueprint %s is locked by another run", path)
	}
	return &Repository{path: path, lock: lock}, nil
}

// Close releases the advisory lock.
func (r *Repository) Close() error {
	return r.lock.Unlock()
}

// Path returns the on-disk location of the blueprint document.
func (r *Repository) Path() string {
	return r.path
}

// Load reads, parses, and normalizes the blueprint.
func (r *Repository) Load() (*Blueprint, error) {
	return Read(r.path)
}

// Save rewrites the whole document. The write goes to a temp file in the
// same directory and is renamed over the original so a crash mid-write
// never leaves a truncated blueprint behind.
func (r *Repository) Save(b *Blueprint) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding blueprint: %w", err)
	}
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".blueprint-*.json")
	if err != nil {
		return fmt.Errorf("creating temp blueprint: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing blueprint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing blueprint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing blueprint: %w", err)
	}
	return nil
}

// Read parses a blueprint without taking the writer lock. Read-only
// consumers (status reporting) use this.
func Read(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading blueprint %s: %w", path, err)
	}
	var b Blueprint
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing blueprint %s: %w", path, err)
	}
	b.Normalize()
	return &b, nil
}
