// Package backup manages timestamp-named snapshots of the storage artifact:
// creation, listing, retention pruning, restore, and the periodic scheduler.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
)

const snapshotPrefix = "backup-"

// ioErr tags a filesystem failure so callers can classify it without
// losing the underlying error.
func ioErr(err error) error {
	return fmt.Errorf("%w: %w", apperr.ErrIO, err)
}

// Manager copies the storage artifact into a snapshots directory. Snapshot
// names embed a UTC timestamp, so lexicographic order is creation order.
type Manager struct {
	artifact string
	dir      string

	// retention reports how many snapshots to keep after each Create.
	// Re-read on every call so a settings change applies without a
	// restart. nil, or a value <= 0, keeps everything.
	retention func() int

	// now is swapped in tests to control snapshot names.
	now func() time.Time
}

// New returns a Manager for the given artifact writing into dir.
func New(artifact, dir string, retention func() int) *Manager {
	return &Manager{artifact: artifact, dir: dir, retention: retention, now: time.Now}
}

// Dir returns the snapshots directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Create copies the artifact into a new snapshot, prunes the oldest
// snapshots beyond the configured retention, and returns the new snapshot.
// When the artifact does not exist yet there is nothing to copy and Create
// returns nil without an error. Two snapshots within the same second share
// a name; the later one wins.
func (m *Manager) Create() (*models.Snapshot, error) {
	src, err := os.Open(m.artifact)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup: open artifact: %w", ioErr(err))
	}
	defer src.Close()

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: ensure snapshots dir: %w", ioErr(err))
	}
	name := snapshotPrefix + m.now().UTC().Format("20060102-150405") + filepath.Ext(m.artifact)
	if err := m.copyAtomic(src, filepath.Join(m.dir, name)); err != nil {
		return nil, err
	}

	info, err := os.Stat(filepath.Join(m.dir, name))
	if err != nil {
		return nil, fmt.Errorf("backup: stat snapshot: %w", ioErr(err))
	}
	if m.retention != nil {
		if _, err := m.Prune(m.retention()); err != nil {
			return nil, err
		}
	}
	return &models.Snapshot{Name: name, Size: info.Size(), CreatedAt: info.ModTime()}, nil
}

// List returns every snapshot, oldest first.
func (m *Manager) List() ([]models.Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup: read snapshots dir: %w", ioErr(err))
	}
	var out []models.Snapshot
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), snapshotPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("backup: stat %s: %w", e.Name(), ioErr(err))
		}
		out = append(out, models.Snapshot{Name: e.Name(), Size: info.Size(), CreatedAt: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Prune deletes the oldest snapshots until at most retain remain and
// returns the names it removed. retain <= 0 keeps everything.
func (m *Manager) Prune(retain int) ([]string, error) {
	if retain <= 0 {
		return nil, nil
	}
	snaps, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(snaps) <= retain {
		return nil, nil
	}
	var removed []string
	for _, s := range snaps[:len(snaps)-retain] {
		if err := os.Remove(filepath.Join(m.dir, s.Name)); err != nil {
			return removed, fmt.Errorf("backup: prune %s: %w", s.Name, ioErr(err))
		}
		removed = append(removed, s.Name)
	}
	return removed, nil
}

// Restore copies the named snapshot over the artifact. The store must be
// closed for the duration; reopening afterwards is the caller's job.
func (m *Manager) Restore(name string) error {
	if name != filepath.Base(name) || !strings.HasPrefix(name, snapshotPrefix) {
		return fmt.Errorf("backup: snapshot name %q: %w", name, apperr.ErrValidation)
	}
	src, err := os.Open(filepath.Join(m.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup: snapshot %q: %w", name, apperr.ErrNotFound)
		}
		return fmt.Errorf("backup: open snapshot: %w", ioErr(err))
	}
	defer src.Close()

	// Stale WAL/SHM siblings would corrupt the restored artifact.
	for _, p := range []string{m.artifact + "-wal", m.artifact + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("backup: remove %s: %w", p, ioErr(err))
		}
	}
	return m.copyAtomic(src, m.artifact)
}

// copyAtomic streams src into dst via a temp file in dst's directory: write,
// fsync, rename.
func (m *Manager) copyAtomic(src io.Reader, dst string) error {
	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, ".dagaz-tmp-*")
	if err != nil {
		return fmt.Errorf("backup: create temp: %w", ioErr(err))
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return fmt.Errorf("backup: copy: %w", ioErr(err))
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("backup: fsync: %w", ioErr(err))
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("backup: close temp: %w", ioErr(err))
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("backup: rename into place: %w", ioErr(err))
	}
	success = true
	return nil
}
