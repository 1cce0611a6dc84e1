// Package settings persists small cross-session state in a JSON file next
// to the storage artifact. It is best effort: a missing or corrupted file
// loads as defaults, never as an error the caller must handle specially.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Default values applied when the file is absent or a field is zero.
const (
	DefaultBackupIntervalMinutes = 30
	DefaultBackupRetention       = 5
)

// SurfaceState remembers what one editing surface was showing.
type SurfaceState struct {
	ActiveItemID int64 `json:"activeItemId,omitempty"`
	CursorOffset int   `json:"cursorOffset,omitempty"`
}

// Settings is the on-disk state. Unknown fields from newer versions are
// dropped on load and rewritten on save.
type Settings struct {
	Version int `json:"version"`

	ActiveTaskListID int64 `json:"activeTaskListId,omitempty"`

	// Surfaces is keyed by surface name ("popup", "window").
	Surfaces map[string]SurfaceState `json:"surfaces,omitempty"`

	BackupIntervalMinutes int `json:"backupIntervalMinutes,omitempty"`
	BackupRetention       int `json:"backupRetention,omitempty"`
}

// File owns the settings path and serialises access to it.
type File struct {
	path string
}

// NewFile returns a File rooted at path. Nothing is read until Load.
func NewFile(path string) *File {
	return &File{path: path}
}

func defaults() *Settings {
	return &Settings{
		Version:               1,
		Surfaces:              map[string]SurfaceState{},
		BackupIntervalMinutes: DefaultBackupIntervalMinutes,
		BackupRetention:       DefaultBackupRetention,
	}
}

// Load reads the settings file. A missing or unparseable file yields
// defaults without an error.
func (f *File) Load() (*Settings, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults(), nil
		}
		return nil, fmt.Errorf("settings: read %s: %w", f.path, err)
	}
	var s Settings
	if err := json.Unmarshal(b, &s); err != nil {
		// Best effort: treat corrupted state as missing.
		return defaults(), nil
	}
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Surfaces == nil {
		s.Surfaces = map[string]SurfaceState{}
	}
	if s.BackupIntervalMinutes == 0 {
		s.BackupIntervalMinutes = DefaultBackupIntervalMinutes
	}
	if s.BackupRetention == 0 {
		s.BackupRetention = DefaultBackupRetention
	}
	return &s, nil
}

// Save writes the settings atomically: temp file in the same directory,
// then rename over the target.
func (f *File) Save(s *Settings) error {
	if s.Version == 0 {
		s.Version = 1
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("settings: ensure dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("settings: create temp: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("settings: replace %s: %w", f.path, err)
	}
	return nil
}
