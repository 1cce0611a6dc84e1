package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/dagaz/internal/settings"
)

func TestLoadMissingYieldsDefaults(t *testing.T) {
	f := settings.NewFile(filepath.Join(t.TempDir(), "settings.json"))
	s, err := f.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Version != 1 {
		t.Errorf("version = %d, want 1", s.Version)
	}
	if s.BackupIntervalMinutes != settings.DefaultBackupIntervalMinutes {
		t.Errorf("interval = %d, want default", s.BackupIntervalMinutes)
	}
	if s.BackupRetention != settings.DefaultBackupRetention {
		t.Errorf("retention = %d, want default", s.BackupRetention)
	}
	if s.Surfaces == nil {
		t.Error("surfaces map not initialised")
	}
}

func TestLoadCorruptedYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	s, err := settings.NewFile(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Version != 1 || s.BackupRetention != settings.DefaultBackupRetention {
		t.Errorf("corrupted file not treated as missing: %+v", s)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	f := settings.NewFile(path)

	s, _ := f.Load()
	s.ActiveTaskListID = 3
	s.Surfaces["popup"] = settings.SurfaceState{ActiveItemID: 7, CursorOffset: 42}
	s.BackupIntervalMinutes = 10
	if err := f.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := f.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.ActiveTaskListID != 3 {
		t.Errorf("active list = %d, want 3", got.ActiveTaskListID)
	}
	if st := got.Surfaces["popup"]; st.ActiveItemID != 7 || st.CursorOffset != 42 {
		t.Errorf("popup surface = %+v", st)
	}
	if got.BackupIntervalMinutes != 10 {
		t.Errorf("interval = %d, want 10", got.BackupIntervalMinutes)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := settings.NewFile(filepath.Join(dir, "settings.json"))
	s, _ := f.Load()
	if err := f.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "settings.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("dir contents = %v", names)
	}
}
