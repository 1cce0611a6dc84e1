// Package session coordinates the two editing surfaces. It owns the active
// item binding, the dirty/cursor state per surface, and the
// save-before-navigate rule that keeps the surfaces single-writer.
package session

import (
	"fmt"
	"sync"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/settings"
)

// Surface names one of the two mutually exclusive editing presentations.
type Surface string

// The only two surfaces that exist.
const (
	SurfacePopup  Surface = "popup"
	SurfaceWindow Surface = "window"
)

// Store is the persistence surface the coordinator saves through.
type Store interface {
	CreateNote(parentID int64, title, content string) (int64, error)
	UpdateContent(id int64, title, content string) error
	GetDetails(id int64) (*models.Item, error)
	ParentID(id int64) (int64, error)
}

// editor is the in-memory buffer state of one surface. itemID 0 means
// composing a new, unsaved note; folderID is then the default save target.
// title is non-empty only when the bound note carries a custom title, one
// that does not match what its content would derive; saves pass it through
// so a rename survives later content edits.
type editor struct {
	itemID   int64
	folderID int64
	title    string
	content  string
	cursor   int
	dirty    bool
}

// Coordinator routes every focus change through a save of the outgoing
// context. Its mutex doubles as the save-in-progress latch: Idle callers
// (the backup scheduler) cannot interleave with a half-done save.
type Coordinator struct {
	mu      sync.Mutex
	store   Store
	active  Surface
	editors map[Surface]*editor
}

// New returns a Coordinator with both surfaces unbound. The popup surface
// starts active, matching the launcher-first flow.
func New(store Store) *Coordinator {
	return &Coordinator{
		store:  store,
		active: SurfacePopup,
		editors: map[Surface]*editor{
			SurfacePopup:  {},
			SurfaceWindow: {},
		},
	}
}

// Active returns the currently visible surface.
func (c *Coordinator) Active() Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Bound returns the item id a surface is bound to, 0 when it is composing
// a new note.
func (c *Coordinator) Bound(surface Surface) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editors[surface].itemID
}

// Buffer returns a surface's current content and cursor offset.
func (c *Coordinator) Buffer(surface Surface) (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ed := c.editors[surface]
	return ed.content, ed.cursor
}

// Edit replaces a surface's buffer and marks it dirty. Only the active
// surface accepts edits; the other one is not visible and must not
// accumulate an independent dirty buffer.
func (c *Coordinator) Edit(surface Surface, content string, cursor int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if surface != c.active {
		return fmt.Errorf("session: edit on inactive surface %s: %w", surface, apperr.ErrConstraint)
	}
	ed := c.editors[surface]
	ed.content = content
	ed.cursor = clamp(cursor, len(content))
	ed.dirty = true
	return nil
}

// SaveIfDirty persists a surface's buffer when needed and returns the bound
// item id (0 if none) and its parent id. A clean buffer returns the current
// binding without touching storage. A dirty unbound buffer with blank
// content is discarded. A dirty unbound buffer with content becomes a new
// note, and the surface binds to it. A dirty bound buffer updates in place,
// re-deriving the title from the first content line unless the note was
// renamed to a custom title, which is kept.
func (c *Coordinator) SaveIfDirty(surface Surface) (itemID, parentID int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked(surface)
}

func (c *Coordinator) saveLocked(surface Surface) (itemID, parentID int64, err error) {
	ed := c.editors[surface]
	if !ed.dirty {
		if ed.itemID == 0 {
			return 0, ed.folderID, nil
		}
		parent, err := c.store.ParentID(ed.itemID)
		if err != nil {
			return 0, 0, err
		}
		return ed.itemID, parent, nil
	}

	if ed.itemID == 0 {
		if isBlank(ed.content) {
			ed.dirty = false
			return 0, ed.folderID, nil
		}
		id, err := c.store.CreateNote(ed.folderID, "", ed.content)
		if err != nil {
			return 0, 0, err
		}
		ed.itemID = id
		ed.dirty = false
		return id, ed.folderID, nil
	}

	if err := c.store.UpdateContent(ed.itemID, ed.title, ed.content); err != nil {
		return 0, 0, err
	}
	ed.dirty = false
	parent, err := c.store.ParentID(ed.itemID)
	if err != nil {
		return 0, 0, err
	}
	return ed.itemID, parent, nil
}

// Open saves the surface's outgoing context, then binds it to the handoff
// token: 0 starts a new unsaved note at the root, a folder id starts a new
// note targeted at that folder, a note id loads the note. The surface
// becomes active. The remembered cursor is clamped to the loaded content.
func (c *Coordinator) Open(surface Surface, token int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, _, err := c.saveLocked(surface); err != nil {
		return err
	}
	if err := c.bindLocked(surface, token); err != nil {
		return err
	}
	c.active = surface
	return nil
}

func (c *Coordinator) bindLocked(surface Surface, token int64) error {
	ed := c.editors[surface]
	if token == 0 {
		*ed = editor{}
		return nil
	}
	it, err := c.store.GetDetails(token)
	if err != nil {
		return err
	}
	if it == nil {
		// The token's item is gone (deleted elsewhere, or stale state from
		// a previous run). Fall back to composing at the root.
		*ed = editor{}
		return nil
	}
	if it.Kind == models.KindFolder {
		*ed = editor{folderID: it.ID}
		return nil
	}
	title := ""
	if it.Title != parser.DeriveTitle("", it.Content) {
		title = it.Title
	}
	*ed = editor{
		itemID:  it.ID,
		title:   title,
		content: it.Content,
		cursor:  clamp(ed.cursor, len(it.Content)),
	}
	return nil
}

// Switch moves focus from one surface to the other, handing over the
// binding as a token. The outgoing surface is saved to completion before
// the incoming one rebinds.
func (c *Coordinator) Switch(from, to Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if from == to {
		return nil
	}
	itemID, parentID, err := c.saveLocked(from)
	if err != nil {
		return err
	}
	token := itemID
	if token == 0 {
		token = parentID
	}
	if err := c.bindLocked(to, token); err != nil {
		return err
	}
	c.active = to
	return nil
}

// EnterImmersive saves the surface and returns the handoff token for the
// immersive single-item editor: the bound note id, or 0 when the surface
// was composing a new note.
func (c *Coordinator) EnterImmersive(surface Surface) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	itemID, _, err := c.saveLocked(surface)
	if err != nil {
		return 0, err
	}
	return itemID, nil
}

// ReturnFromImmersive rebinds the surface from the immersive editor's
// token. Token 0 means "start a new, unsaved note".
func (c *Coordinator) ReturnFromImmersive(surface Surface, token int64) error {
	return c.Open(surface, token)
}

// Close saves the surface, returns its state for persistence, and leaves
// the surface unbound. The returned state is what the settings file stores
// per surface.
func (c *Coordinator) Close(surface Surface) (settings.SurfaceState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	itemID, _, err := c.saveLocked(surface)
	if err != nil {
		return settings.SurfaceState{}, err
	}
	ed := c.editors[surface]
	st := settings.SurfaceState{ActiveItemID: itemID, CursorOffset: ed.cursor}
	*ed = editor{}
	return st, nil
}

// Restore seeds a surface's remembered cursor from persisted state without
// activating it. The caller follows up with Open(surface, st.ActiveItemID);
// the cursor is clamped there once the content length is known.
func (c *Coordinator) Restore(surface Surface, st settings.SurfaceState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.editors[surface] = editor{cursor: maxInt(st.CursorOffset, 0)}
}

// Idle runs fn while no save is in progress. The backup scheduler uses
// this so a timer-driven snapshot never observes a half-written save.
func (c *Coordinator) Idle(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
