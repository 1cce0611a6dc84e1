package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dagaz/internal/models"
)

// CreateItemRequest is the request body for creating a folder or note.
// ParentID 0 targets the root.
type CreateItemRequest struct {
	Kind     string `json:"kind"`
	ParentID int64  `json:"parent_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// Validate implements request validation.
func (r CreateItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.Required,
			validation.In(string(models.KindFolder), string(models.KindNote))),
		validation.Field(&r.ParentID, validation.Min(int64(0))),
	)
}

// UpdateItemRequest is the request body for replacing title and content.
// An empty title is re-derived from the first content line.
type UpdateItemRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// RenameRequest updates only the title.
type RenameRequest struct {
	Title string `json:"title"`
}

// MoveRequest reparents an item. NewParentID 0 moves it to the root.
type MoveRequest struct {
	NewParentID int64 `json:"new_parent_id"`
}

// Validate implements request validation.
func (r MoveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewParentID, validation.Min(int64(0))),
	)
}

// FlagRequest sets a boolean item flag (pinned, hidden).
type FlagRequest struct {
	Value bool `json:"value"`
}

// TreeResponse wraps the item forest.
type TreeResponse struct {
	Roots []*models.TreeNode `json:"roots"`
}

// TaskListRequest names a task list on create or rename.
type TaskListRequest struct {
	Name string `json:"name"`
}

// Validate implements request validation.
func (r TaskListRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

// AddTaskRequest appends a task to a list.
type AddTaskRequest struct {
	Content string `json:"content"`
}

// Validate implements request validation.
func (r AddTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
	)
}

// UpdateTaskRequest patches a task; nil fields are left untouched.
type UpdateTaskRequest struct {
	Content   *string `json:"content"`
	Completed *bool   `json:"completed"`
}

// ReorderRequest carries the new task order, first to last.
type ReorderRequest struct {
	IDs []int64 `json:"ids"`
}

// Validate implements request validation.
func (r ReorderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs, validation.Required),
	)
}

// SearchResponse wraps matching note ids.
type SearchResponse struct {
	IDs []int64 `json:"ids"`
}

// TagsResponse wraps the sorted tag union.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// UnlockRequest presents a password candidate to the gate.
type UnlockRequest struct {
	Password string `json:"password"`
}

// AnswersRequest presents recovery answer candidates.
type AnswersRequest struct {
	Answer1 string `json:"answer1"`
	Answer2 string `json:"answer2"`
}

// CredentialsRequest updates the gate. Absent fields retain the stored
// value; present-but-empty fields clear it.
type CredentialsRequest struct {
	Password  *string `json:"password"`
	Question1 *string `json:"question1"`
	Answer1   *string `json:"answer1"`
	Question2 *string `json:"question2"`
	Answer2   *string `json:"answer2"`
}

// GateResponse reports the current gate state. Questions are only present
// while recovering.
type GateResponse struct {
	State     string `json:"state"`
	Question1 string `json:"question1,omitempty"`
	Question2 string `json:"question2,omitempty"`
}

// SnapshotsResponse wraps the snapshot listing, oldest first.
type SnapshotsResponse struct {
	Snapshots []models.Snapshot `json:"snapshots"`
}

// SurfaceOpenRequest binds a surface to a handoff token. Token 0 starts a
// new, unsaved note.
type SurfaceOpenRequest struct {
	Token int64 `json:"token"`
}

// EditRequest replaces a surface's buffer.
type EditRequest struct {
	Content string `json:"content"`
	Cursor  int    `json:"cursor"`
}

// Validate implements request validation.
func (r EditRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Cursor, validation.Min(0)),
	)
}

// SwitchRequest moves focus between the two surfaces.
type SwitchRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Validate implements request validation.
func (r SwitchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required, validation.In("popup", "window")),
		validation.Field(&r.To, validation.Required, validation.In("popup", "window")),
	)
}

// SaveResponse reports the binding after a save: the bound item id (0 when
// nothing was persisted) and its parent id.
type SaveResponse struct {
	ItemID   int64 `json:"item_id"`
	ParentID int64 `json:"parent_id"`
}

// TokenResponse carries a handoff token out of a surface.
type TokenResponse struct {
	Token int64 `json:"token"`
}
