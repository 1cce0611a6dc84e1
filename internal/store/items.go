package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
)

// CreateFolder inserts a new folder under parentID (0 for root) and returns
// its id.
func (db *DB) CreateFolder(parentID int64, title string) (int64, error) {
	if err := db.checkParent(parentID); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	res, err := db.conn.Exec(`
		INSERT INTO items (parent_id, kind, title, created_at, updated_at)
		VALUES (?, 'folder', ?, ?, ?)`,
		nullableID(parentID), parser.SanitizeTitle(title), now, now)
	if err != nil {
		return 0, fmt.Errorf("store: create folder: %w", err)
	}
	return res.LastInsertId()
}

// CreateNote inserts a new note under parentID (0 for root) and returns its
// id. An empty title is derived from the first line of content with every
// '#' removed; if that is still empty a placeholder is used.
func (db *DB) CreateNote(parentID int64, title, content string) (int64, error) {
	if err := db.checkParent(parentID); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	res, err := db.conn.Exec(`
		INSERT INTO items (parent_id, kind, title, content, created_at, updated_at)
		VALUES (?, 'note', ?, ?, ?, ?)`,
		nullableID(parentID), parser.DeriveTitle(title, content), content, now, now)
	if err != nil {
		return 0, fmt.Errorf("store: create note: %w", err)
	}
	return res.LastInsertId()
}

// GetDetails returns the full item, or nil (without an error) when the id
// does not exist.
func (db *DB) GetDetails(id int64) (*models.Item, error) {
	row := db.conn.QueryRow(`
		SELECT id, COALESCE(parent_id, 0), kind, title, content, pinned, hidden, created_at, updated_at
		FROM items WHERE id = ?`, id)
	var it models.Item
	err := row.Scan(&it.ID, &it.ParentID, &it.Kind, &it.Title, &it.Content,
		&it.Pinned, &it.Hidden, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get item %d: %w", id, err)
	}
	return &it, nil
}

// UpdateContent replaces an item's title and content. The title is sanitised
// exactly as on creation.
func (db *DB) UpdateContent(id int64, title, content string) error {
	res, err := db.conn.Exec(`
		UPDATE items SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		parser.DeriveTitle(title, content), content, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: update content %d: %w", id, err)
	}
	return requireRow(res, id)
}

// Rename updates only the title, sanitised and defaulting to a placeholder
// when the sanitised result is empty.
func (db *DB) Rename(id int64, title string) error {
	res, err := db.conn.Exec(`
		UPDATE items SET title = ?, updated_at = ? WHERE id = ?`,
		parser.SanitizeTitle(title), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: rename %d: %w", id, err)
	}
	return requireRow(res, id)
}

// SetPinned toggles the pinned flag, which floats the item to the top of its
// tree level.
func (db *DB) SetPinned(id int64, pinned bool) error {
	res, err := db.conn.Exec(`
		UPDATE items SET pinned = ?, updated_at = ? WHERE id = ?`,
		pinned, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: set pinned %d: %w", id, err)
	}
	return requireRow(res, id)
}

// SetHidden toggles the hidden flag.
func (db *DB) SetHidden(id int64, hidden bool) error {
	res, err := db.conn.Exec(`
		UPDATE items SET hidden = ?, updated_at = ? WHERE id = ?`,
		hidden, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: set hidden %d: %w", id, err)
	}
	return requireRow(res, id)
}

// Move reparents a single item. newParentID 0 moves it to the root. A move
// onto itself or into its own subtree is rejected.
func (db *DB) Move(id, newParentID int64) error {
	if id == newParentID {
		return fmt.Errorf("store: move %d onto itself: %w", id, apperr.ErrConstraint)
	}
	if ok, err := db.exists(id); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("store: move %d: %w", id, apperr.ErrNotFound)
	}
	if newParentID != 0 {
		if err := db.checkParent(newParentID); err != nil {
			return err
		}
		// Walk the ancestor chain of the target parent; hitting id means the
		// move would close a cycle.
		cur := newParentID
		for cur != 0 {
			parent, err := db.ParentID(cur)
			if err != nil {
				return err
			}
			if parent == id {
				return fmt.Errorf("store: move %d into own subtree: %w", id, apperr.ErrConstraint)
			}
			cur = parent
		}
	}
	_, err := db.conn.Exec(`
		UPDATE items SET parent_id = ?, updated_at = ? WHERE id = ?`,
		nullableID(newParentID), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: move %d: %w", id, err)
	}
	return nil
}

// Delete removes the item and, for folders, its entire subtree in a single
// transaction. Deleting a nonexistent id is a no-op.
func (db *DB) Delete(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin delete tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	// Collect the subtree breadth-first, then drop everything at once, so
	// either the whole subtree disappears or none of it does.
	ids := []int64{id}
	frontier := []int64{id}
	for len(frontier) > 0 {
		rows, err := tx.Query(`SELECT id FROM items WHERE parent_id IN (`+placeholders(len(frontier))+`)`,
			int64Args(frontier)...)
		if err != nil {
			return fmt.Errorf("store: collect subtree: %w", err)
		}
		var next []int64
		for rows.Next() {
			var cid int64
			if err := rows.Scan(&cid); err != nil {
				rows.Close()
				return err
			}
			next = append(next, cid)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
		ids = append(ids, next...)
		frontier = next
	}

	if _, err := tx.Exec(`DELETE FROM items WHERE id IN (`+placeholders(len(ids))+`)`,
		int64Args(ids)...); err != nil {
		return fmt.Errorf("store: delete subtree: %w", err)
	}
	return tx.Commit()
}

// ParentID returns the parent id of an item, 0 when it is a root.
func (db *DB) ParentID(id int64) (int64, error) {
	var parent int64
	err := db.conn.QueryRow(`SELECT COALESCE(parent_id, 0) FROM items WHERE id = ?`, id).Scan(&parent)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("store: parent of %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("store: parent of %d: %w", id, err)
	}
	return parent, nil
}

// Notes returns a flat list of every note (id, title, pinned), used by list
// refreshes and assistant tooling.
func (db *DB) Notes() ([]models.NoteListItem, error) {
	rows, err := db.conn.Query(`SELECT id, title, pinned FROM items WHERE kind = 'note' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()
	var out []models.NoteListItem
	for rows.Next() {
		var n models.NoteListItem
		if err := rows.Scan(&n.ID, &n.Title, &n.Pinned); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// NoteContents returns id, title and content for every note, oldest first.
// This is the read surface the search component queries on demand.
func (db *DB) NoteContents() ([]models.NoteContent, error) {
	rows, err := db.conn.Query(`SELECT id, title, content FROM items WHERE kind = 'note' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: note contents: %w", err)
	}
	defer rows.Close()
	var out []models.NoteContent
	for rows.Next() {
		var n models.NoteContent
		if err := rows.Scan(&n.ID, &n.Title, &n.Content); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Tree returns the item forest without content. Roots sit at depth 0 and
// every folder carries its children recursively.
func (db *DB) Tree() ([]*models.TreeNode, error) {
	return db.buildTree(false)
}

// FullTree is the same traversal as Tree but every node also carries its
// content. Used only by export collaborators.
func (db *DB) FullTree() ([]*models.TreeNode, error) {
	return db.buildTree(true)
}

// buildTree loads all items into an arena (flat slice plus id index) and
// attaches children by index, avoiding pointer cycles.
func (db *DB) buildTree(withContent bool) ([]*models.TreeNode, error) {
	cols := `id, COALESCE(parent_id, 0), kind, title, pinned, hidden`
	if withContent {
		cols += `, content`
	}
	rows, err := db.conn.Query(`SELECT ` + cols + ` FROM items`)
	if err != nil {
		return nil, fmt.Errorf("store: load tree: %w", err)
	}
	defer rows.Close()

	var arena []*models.TreeNode
	for rows.Next() {
		n := &models.TreeNode{}
		dest := []any{&n.ID, &n.ParentID, &n.Kind, &n.Title, &n.Pinned, &n.Hidden}
		if withContent {
			dest = append(dest, &n.Content)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		arena = append(arena, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	index := make(map[int64]*models.TreeNode, len(arena))
	for _, n := range arena {
		index[n.ID] = n
	}
	var roots []*models.TreeNode
	for _, n := range arena {
		if parent, ok := index[n.ParentID]; ok && n.ParentID != 0 {
			parent.Children = append(parent.Children, n)
		} else {
			roots = append(roots, n)
		}
	}

	sortLevel(roots)
	for _, n := range arena {
		if len(n.Children) > 0 {
			sortLevel(n.Children)
		}
	}
	return roots, nil
}

// sortLevel orders one sibling level: pinned first, then folders before
// notes, then case-insensitive title, with ascending id as the stable
// tie-break.
func sortLevel(nodes []*models.TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if a.Kind != b.Kind {
			return a.Kind == models.KindFolder
		}
		at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if at != bt {
			return at < bt
		}
		return a.ID < b.ID
	})
}

// checkParent verifies that a prospective parent exists and is a folder.
// parentID 0 (root) always passes.
func (db *DB) checkParent(parentID int64) error {
	if parentID == 0 {
		return nil
	}
	var kind models.ItemKind
	err := db.conn.QueryRow(`SELECT kind FROM items WHERE id = ?`, parentID).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: parent %d: %w", parentID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("store: parent %d: %w", parentID, err)
	}
	if kind != models.KindFolder {
		return fmt.Errorf("store: parent %d is not a folder: %w", parentID, apperr.ErrConstraint)
	}
	return nil
}

func (db *DB) exists(id int64) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM items WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: exists %d: %w", id, err)
	}
	return true, nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("store: item %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// nullableID maps the 0 sentinel to SQL NULL so the self-referential foreign
// key stays valid for roots.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
