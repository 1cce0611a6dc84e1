package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/testutil"
)

func TestSecurityRecordRoundTrip(t *testing.T) {
	db := testutil.TestDB(t)

	rec, err := db.SecurityRecord()
	if err != nil {
		t.Fatalf("load empty record: %v", err)
	}
	if rec.HasPassword() {
		t.Fatalf("fresh store reports a password: %+v", rec)
	}

	want := models.SecurityRecord{
		PasswordHash: "abc",
		Question1:    "first pet?",
		Answer1Hash:  "def",
	}
	if err := db.SaveSecurityRecord(want); err != nil {
		t.Fatalf("save record: %v", err)
	}
	// A second save overwrites the singleton row rather than adding one.
	want.Question2 = "home town?"
	want.Answer2Hash = "ghi"
	if err := db.SaveSecurityRecord(want); err != nil {
		t.Fatalf("resave record: %v", err)
	}

	got, err := db.SecurityRecord()
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if got != want {
		t.Errorf("record = %+v, want %+v", got, want)
	}
}

func TestWipeMarkerLifecycle(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "dagaz.db")

	db, err := store.Open(artifact)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.CreateNote(0, "doomed", "x"); err != nil {
		t.Fatalf("create note: %v", err)
	}

	if err := store.ScheduleWipe(artifact); err != nil {
		t.Fatalf("schedule wipe: %v", err)
	}
	if _, err := os.Stat(store.WipeMarkerPath(artifact)); err != nil {
		t.Fatalf("marker not written: %v", err)
	}
	// The artifact stays intact while the process is still running.
	if it, err := db.GetDetails(1); err != nil || it == nil {
		t.Fatalf("note gone before restart: %v %v", it, err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	wiped, err := store.ApplyPendingWipe(artifact)
	if err != nil {
		t.Fatalf("apply wipe: %v", err)
	}
	if !wiped {
		t.Fatal("pending wipe not applied")
	}
	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Errorf("artifact survived wipe: %v", err)
	}
	if _, err := os.Stat(store.WipeMarkerPath(artifact)); !os.IsNotExist(err) {
		t.Errorf("marker not consumed: %v", err)
	}

	// The marker fires once. A second start is a clean open.
	wiped, err = store.ApplyPendingWipe(artifact)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if wiped {
		t.Error("wipe reported twice")
	}
	db, err = store.Open(artifact)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if it, err := db.GetDetails(1); err != nil || it != nil {
		t.Errorf("wiped store still has items: %v %v", it, err)
	}
}
