// Package models defines the domain types for dagaz.
package models

import "time"

// ItemKind discriminates the two node kinds of the item forest.
// The kind of an item never changes after creation.
type ItemKind string

// Item kinds.
const (
	KindFolder ItemKind = "folder"
	KindNote   ItemKind = "note"
)

// Item is a note or folder node in the hierarchical store.
// ParentID 0 means the item is a root.
type Item struct {
	ID        int64     `json:"id"`
	ParentID  int64     `json:"parent_id,omitempty"`
	Kind      ItemKind  `json:"kind"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Pinned    bool      `json:"pinned"`
	Hidden    bool      `json:"hidden"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TreeNode is one node of the rendered item forest. Content is populated
// only by full-tree traversals used for export.
type TreeNode struct {
	ID       int64       `json:"id"`
	ParentID int64       `json:"parent_id,omitempty"`
	Kind     ItemKind    `json:"kind"`
	Title    string      `json:"title"`
	Pinned   bool        `json:"pinned"`
	Hidden   bool        `json:"hidden"`
	Content  string      `json:"content,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// NoteContent is the slice of a note that search queries look at.
type NoteContent struct {
	ID      int64
	Title   string
	Content string
}

// NoteListItem is a lightweight note representation for list refreshes.
type NoteListItem struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Pinned bool   `json:"pinned"`
}

// TaskList is a named, ordered list of tasks. The last remaining list can
// never be deleted.
type TaskList struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	OrderIndex int    `json:"order_index"`
}

// Task is a single checkable entry in a task list. OrderIndex is dense and
// contiguous (0..n-1) within a list after any reorder.
type Task struct {
	ID         int64     `json:"id"`
	ListID     int64     `json:"list_id"`
	Content    string    `json:"content"`
	Completed  bool      `json:"completed"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// SecurityRecord is the singleton row backing the access gate. Empty hash
// strings mean "no value stored", never the hash of an empty string.
type SecurityRecord struct {
	PasswordHash string
	Question1    string
	Answer1Hash  string
	Question2    string
	Answer2Hash  string
}

// HasPassword reports whether the gate is armed.
func (r SecurityRecord) HasPassword() bool {
	return r.PasswordHash != ""
}

// Snapshot describes one immutable, timestamp-named copy of the storage
// artifact. Name order is creation order.
type Snapshot struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
