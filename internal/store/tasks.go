package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
)

// TaskLists returns every task list ordered by order_index, then name.
func (db *DB) TaskLists() ([]models.TaskList, error) {
	rows, err := db.conn.Query(`SELECT id, name, order_index FROM task_lists ORDER BY order_index, name`)
	if err != nil {
		return nil, fmt.Errorf("store: list task lists: %w", err)
	}
	defer rows.Close()
	var out []models.TaskList
	for rows.Next() {
		var l models.TaskList
		if err := rows.Scan(&l.ID, &l.Name, &l.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Tasks returns the tasks of one list ordered by order_index, then creation
// time.
func (db *DB) Tasks(listID int64) ([]models.Task, error) {
	rows, err := db.conn.Query(`
		SELECT id, list_id, content, completed, order_index, created_at
		FROM tasks WHERE list_id = ?
		ORDER BY order_index, created_at`, listID)
	if err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	defer rows.Close()
	var out []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.ListID, &t.Content, &t.Completed, &t.OrderIndex, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddTask appends an uncompleted task to a list and returns its id.
func (db *DB) AddTask(listID int64, content string) (int64, error) {
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("store: task content: %w", apperr.ErrValidation)
	}
	if ok, err := db.taskListExists(listID); err != nil {
		return 0, err
	} else if !ok {
		return 0, fmt.Errorf("store: task list %d: %w", listID, apperr.ErrNotFound)
	}
	var next int
	if err := db.conn.QueryRow(
		`SELECT COALESCE(MAX(order_index), -1) + 1 FROM tasks WHERE list_id = ?`, listID,
	).Scan(&next); err != nil {
		return 0, fmt.Errorf("store: next task order: %w", err)
	}
	res, err := db.conn.Exec(`
		INSERT INTO tasks (list_id, content, completed, order_index, created_at)
		VALUES (?, ?, 0, ?, ?)`,
		listID, content, next, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("store: add task: %w", err)
	}
	return res.LastInsertId()
}

// UpdateTask updates the content and/or completed flag of a task. A nil
// argument leaves that field untouched.
func (db *DB) UpdateTask(id int64, content *string, completed *bool) error {
	if content == nil && completed == nil {
		return nil
	}
	if content != nil && strings.TrimSpace(*content) == "" {
		return fmt.Errorf("store: task content: %w", apperr.ErrValidation)
	}
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *content)
	}
	if completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, *completed)
	}
	args = append(args, id)
	res, err := db.conn.Exec(`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("store: update task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("store: task %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// DeleteTask removes a task. Deleting a nonexistent id is a no-op.
func (db *DB) DeleteTask(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete task %d: %w", id, err)
	}
	return nil
}

// ReorderTasks assigns order_index = position for every id in orderedIDs
// that belongs to listID; foreign ids are ignored. The assignment happens in
// one transaction so the dense 0..n-1 invariant holds afterwards.
func (db *DB) ReorderTasks(listID int64, orderedIDs []int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin reorder tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`UPDATE tasks SET order_index = ? WHERE id = ? AND list_id = ?`)
	if err != nil {
		return fmt.Errorf("store: prepare reorder: %w", err)
	}
	defer stmt.Close()
	for pos, id := range orderedIDs {
		if _, err := stmt.Exec(pos, id, listID); err != nil {
			return fmt.Errorf("store: reorder task %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// AddTaskList creates a new list appended after the existing ones and
// returns its id. The name must be non-blank and unique.
func (db *DB) AddTaskList(name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("store: task list name: %w", apperr.ErrValidation)
	}
	var next int
	if err := db.conn.QueryRow(`SELECT COALESCE(MAX(order_index), 0) + 1 FROM task_lists`).Scan(&next); err != nil {
		return 0, fmt.Errorf("store: next list order: %w", err)
	}
	res, err := db.conn.Exec(`INSERT INTO task_lists (name, order_index) VALUES (?, ?)`, name, next)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("store: task list %q: %w", name, apperr.ErrConflict)
		}
		return 0, fmt.Errorf("store: add task list: %w", err)
	}
	return res.LastInsertId()
}

// RenameTaskList changes a list's name.
func (db *DB) RenameTaskList(id int64, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("store: task list name: %w", apperr.ErrValidation)
	}
	res, err := db.conn.Exec(`UPDATE task_lists SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store: task list %q: %w", name, apperr.ErrConflict)
		}
		return fmt.Errorf("store: rename task list %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("store: task list %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// DeleteTaskList removes a list and cascades its tasks. The last remaining
// list is never deleted.
func (db *DB) DeleteTaskList(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin delete list tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var count int
	if err := tx.QueryRow(`SELECT count(*) FROM task_lists`).Scan(&count); err != nil {
		return fmt.Errorf("store: count task lists: %w", err)
	}
	if count <= 1 {
		return fmt.Errorf("store: delete last task list: %w", apperr.ErrConstraint)
	}
	if _, err := tx.Exec(`DELETE FROM tasks WHERE list_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete list tasks: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM task_lists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete task list %d: %w", id, err)
	}
	return tx.Commit()
}

func (db *DB) taskListExists(id int64) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM task_lists WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: task list exists %d: %w", id, err)
	}
	return true, nil
}

// isUniqueViolation sniffs the sqlite UNIQUE constraint error without
// depending on driver error codes.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
