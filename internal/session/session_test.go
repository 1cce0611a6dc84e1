package session_test

import (
	"errors"
	"testing"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/session"
	"github.com/starford/dagaz/internal/settings"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/testutil"
)

// countingStore wraps the real store and counts persisted writes, which is
// what the save-idempotence contract is about.
type countingStore struct {
	*store.DB
	creates int
	updates int
}

func (c *countingStore) CreateNote(parentID int64, title, content string) (int64, error) {
	c.creates++
	return c.DB.CreateNote(parentID, title, content)
}

func (c *countingStore) UpdateContent(id int64, title, content string) error {
	c.updates++
	return c.DB.UpdateContent(id, title, content)
}

func newCoordinator(t *testing.T) (*session.Coordinator, *countingStore) {
	t.Helper()
	cs := &countingStore{DB: testutil.TestDB(t)}
	return session.New(cs), cs
}

func TestSaveIfDirtyIsIdempotent(t *testing.T) {
	c, cs := newCoordinator(t)

	if err := c.Edit(session.SurfacePopup, "quick thought", 5); err != nil {
		t.Fatalf("edit: %v", err)
	}
	id, parent, err := c.SaveIfDirty(session.SurfacePopup)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == 0 || parent != 0 {
		t.Fatalf("save returned (%d, %d)", id, parent)
	}
	if cs.creates != 1 || cs.updates != 0 {
		t.Fatalf("writes after first save: %d creates, %d updates", cs.creates, cs.updates)
	}

	// No intervening edit: the second call must not write.
	id2, _, err := c.SaveIfDirty(session.SurfacePopup)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if id2 != id {
		t.Errorf("second save returned id %d, want %d", id2, id)
	}
	if cs.creates != 1 || cs.updates != 0 {
		t.Errorf("writes after second save: %d creates, %d updates", cs.creates, cs.updates)
	}
}

func TestBlankUnboundBufferIsDiscarded(t *testing.T) {
	c, cs := newCoordinator(t)

	if err := c.Edit(session.SurfacePopup, "  \n\t ", 0); err != nil {
		t.Fatalf("edit: %v", err)
	}
	id, _, err := c.SaveIfDirty(session.SurfacePopup)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != 0 || cs.creates != 0 {
		t.Errorf("blank buffer persisted: id %d, %d creates", id, cs.creates)
	}
}

func TestDirtyBoundBufferUpdatesInPlace(t *testing.T) {
	c, cs := newCoordinator(t)

	noteID, err := cs.DB.CreateNote(0, "", "old body")
	if err != nil {
		t.Fatalf("seed note: %v", err)
	}
	if err := c.Open(session.SurfacePopup, noteID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := c.Bound(session.SurfacePopup); got != noteID {
		t.Fatalf("bound = %d, want %d", got, noteID)
	}

	if err := c.Edit(session.SurfacePopup, "Fresh headline\nbody", 3); err != nil {
		t.Fatalf("edit: %v", err)
	}
	id, _, err := c.SaveIfDirty(session.SurfacePopup)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != noteID || cs.updates != 1 || cs.creates != 0 {
		t.Fatalf("save = %d, %d creates, %d updates", id, cs.creates, cs.updates)
	}

	it, _ := cs.DB.GetDetails(noteID)
	if it.Title != "Fresh headline" {
		t.Errorf("title = %q, want re-derived first line", it.Title)
	}
}

func TestCustomTitleSurvivesContentEdits(t *testing.T) {
	c, cs := newCoordinator(t)

	noteID, err := cs.DB.CreateNote(0, "", "grocery run\nmilk")
	if err != nil {
		t.Fatalf("seed note: %v", err)
	}
	if err := cs.DB.Rename(noteID, "Weekly Errands"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	if err := c.Open(session.SurfacePopup, noteID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.Edit(session.SurfacePopup, "grocery run\nmilk, eggs", 0); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, _, err := c.SaveIfDirty(session.SurfacePopup); err != nil {
		t.Fatalf("save: %v", err)
	}

	it, _ := cs.DB.GetDetails(noteID)
	if it.Title != "Weekly Errands" {
		t.Errorf("title = %q, custom title lost on content save", it.Title)
	}
	if it.Content != "grocery run\nmilk, eggs" {
		t.Errorf("content = %q", it.Content)
	}
}

func TestNewNoteTargetsOpenFolder(t *testing.T) {
	c, cs := newCoordinator(t)

	folder, err := cs.DB.CreateFolder(0, "inbox")
	if err != nil {
		t.Fatalf("seed folder: %v", err)
	}
	if err := c.Open(session.SurfacePopup, folder); err != nil {
		t.Fatalf("open folder: %v", err)
	}
	if got := c.Bound(session.SurfacePopup); got != 0 {
		t.Fatalf("folder open bound an item: %d", got)
	}

	if err := c.Edit(session.SurfacePopup, "filed note", 0); err != nil {
		t.Fatalf("edit: %v", err)
	}
	id, parent, err := c.SaveIfDirty(session.SurfacePopup)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if parent != folder {
		t.Errorf("new note parent = %d, want %d", parent, folder)
	}
	if got, _ := cs.DB.ParentID(id); got != folder {
		t.Errorf("persisted parent = %d, want %d", got, folder)
	}
}

func TestSwitchHandsOffAfterSave(t *testing.T) {
	c, cs := newCoordinator(t)

	if err := c.Edit(session.SurfacePopup, "drafted in the popup", 4); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := c.Switch(session.SurfacePopup, session.SurfaceWindow); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if c.Active() != session.SurfaceWindow {
		t.Errorf("active = %s, want window", c.Active())
	}
	// The popup's draft was persisted before the window rebound to it.
	if cs.creates != 1 {
		t.Fatalf("creates = %d, want 1", cs.creates)
	}
	id := c.Bound(session.SurfaceWindow)
	if id == 0 || id != c.Bound(session.SurfacePopup) {
		t.Errorf("window bound to %d, popup to %d", id, c.Bound(session.SurfacePopup))
	}
	content, _ := c.Buffer(session.SurfaceWindow)
	if content != "drafted in the popup" {
		t.Errorf("window buffer = %q", content)
	}

	// The popup is no longer visible; its buffer cannot go dirty again.
	if err := c.Edit(session.SurfacePopup, "stale write", 0); !errors.Is(err, apperr.ErrConstraint) {
		t.Errorf("edit on inactive surface: err = %v, want ErrConstraint", err)
	}
}

func TestImmersiveHandoffTokens(t *testing.T) {
	c, cs := newCoordinator(t)

	noteID, _ := cs.DB.CreateNote(0, "deep work", "body")
	if err := c.Open(session.SurfaceWindow, noteID); err != nil {
		t.Fatalf("open: %v", err)
	}
	token, err := c.EnterImmersive(session.SurfaceWindow)
	if err != nil {
		t.Fatalf("enter immersive: %v", err)
	}
	if token != noteID {
		t.Errorf("token = %d, want %d", token, noteID)
	}
	if err := c.ReturnFromImmersive(session.SurfaceWindow, token); err != nil {
		t.Fatalf("return: %v", err)
	}
	if c.Bound(session.SurfaceWindow) != noteID {
		t.Errorf("rebound to %d", c.Bound(session.SurfaceWindow))
	}

	// Token 0 means "start a new, unsaved note".
	if err := c.ReturnFromImmersive(session.SurfaceWindow, 0); err != nil {
		t.Fatalf("return with zero token: %v", err)
	}
	if c.Bound(session.SurfaceWindow) != 0 {
		t.Errorf("zero token bound %d", c.Bound(session.SurfaceWindow))
	}
	content, _ := c.Buffer(session.SurfaceWindow)
	if content != "" {
		t.Errorf("fresh buffer = %q", content)
	}
}

func TestCursorClampedOnOpen(t *testing.T) {
	c, cs := newCoordinator(t)

	noteID, _ := cs.DB.CreateNote(0, "", "short")
	c.Restore(session.SurfacePopup, settings.SurfaceState{ActiveItemID: noteID, CursorOffset: 9999})
	if err := c.Open(session.SurfacePopup, noteID); err != nil {
		t.Fatalf("open: %v", err)
	}
	_, cursor := c.Buffer(session.SurfacePopup)
	if cursor != len("short") {
		t.Errorf("cursor = %d, want clamped to %d", cursor, len("short"))
	}
}

func TestOpenStaleTokenFallsBack(t *testing.T) {
	c, cs := newCoordinator(t)

	noteID, _ := cs.DB.CreateNote(0, "gone soon", "")
	if err := cs.DB.Delete(noteID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Open(session.SurfacePopup, noteID); err != nil {
		t.Fatalf("open stale token: %v", err)
	}
	if c.Bound(session.SurfacePopup) != 0 {
		t.Errorf("stale token bound %d", c.Bound(session.SurfacePopup))
	}
}

func TestCloseReturnsPersistableState(t *testing.T) {
	c, cs := newCoordinator(t)

	noteID, _ := cs.DB.CreateNote(0, "", "hello there")
	if err := c.Open(session.SurfacePopup, noteID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.Edit(session.SurfacePopup, "hello there, world", 7); err != nil {
		t.Fatalf("edit: %v", err)
	}

	st, err := c.Close(session.SurfacePopup)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if st.ActiveItemID != noteID || st.CursorOffset != 7 {
		t.Errorf("state = %+v", st)
	}
	// The edit was saved on the way out.
	it, _ := cs.DB.GetDetails(noteID)
	if it.Content != "hello there, world" {
		t.Errorf("content after close = %q", it.Content)
	}
	if c.Bound(session.SurfacePopup) != 0 {
		t.Errorf("surface still bound after close")
	}
}

func TestIdleRunsUnderTheSaveLatch(t *testing.T) {
	c, _ := newCoordinator(t)

	ran := false
	c.Idle(func() { ran = true })
	if !ran {
		t.Error("idle callback did not run")
	}
}
