// Package store provides the SQLite-backed persistence core: the item
// forest, the task lists, and the security record all live in one storage
// artifact.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id  INTEGER REFERENCES items(id) ON DELETE CASCADE,
	kind       TEXT NOT NULL CHECK(kind IN ('folder', 'note')),
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	pinned     INTEGER NOT NULL DEFAULT 0,
	hidden     INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id);

CREATE TABLE IF NOT EXISTS task_lists (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT UNIQUE NOT NULL,
	order_index INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	list_id     INTEGER NOT NULL REFERENCES task_lists(id) ON DELETE CASCADE,
	content     TEXT NOT NULL,
	completed   INTEGER NOT NULL DEFAULT 0,
	order_index INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_list ON tasks(list_id);

CREATE TABLE IF NOT EXISTS security (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	password_hash TEXT NOT NULL DEFAULT '',
	question1     TEXT NOT NULL DEFAULT '',
	answer1_hash  TEXT NOT NULL DEFAULT '',
	question2     TEXT NOT NULL DEFAULT '',
	answer2_hash  TEXT NOT NULL DEFAULT ''
);
`

// DefaultTaskListName is the list seeded when the task_lists table is empty,
// keeping the "at least one list" invariant from the first open onward.
const DefaultTaskListName = "Default"

// DB wraps a sql.DB with the dagaz persistence operations.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) the storage artifact at path, applies the schema,
// and seeds the default task list.
func Open(path string) (*DB, error) {
	conn, err := connect(path)
	if err != nil {
		return nil, err
	}
	db := &DB{conn: conn, path: path}
	if err := db.seedDefaultTaskList(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func connect(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return conn, nil
}

// Reopen closes the underlying connection and opens a fresh one against the
// same artifact path. Callers holding this DB stay valid; a snapshot
// restore uses it after replacing the file.
func (db *DB) Reopen() error {
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("store: close before reopen: %w", err)
	}
	conn, err := connect(db.path)
	if err != nil {
		return err
	}
	db.conn = conn
	return db.seedDefaultTaskList()
}

// Close closes the underlying database connection, releasing the artifact
// handle so backup/restore tooling can take over.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the location of the storage artifact.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) seedDefaultTaskList() error {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM task_lists`).Scan(&n); err != nil {
		return fmt.Errorf("store: count task lists: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.conn.Exec(
		`INSERT INTO task_lists (name, order_index) VALUES (?, 0)`, DefaultTaskListName,
	); err != nil {
		return fmt.Errorf("store: seed default task list: %w", err)
	}
	return nil
}

// WipeMarkerPath returns the location of the deferred-wipe marker for the
// given artifact path.
func WipeMarkerPath(artifact string) string {
	return filepath.Join(filepath.Dir(artifact), ".dagaz-wipe")
}

// ScheduleWipe persists the single-shot wipe marker. The wipe itself is
// deferred to the next process start because the artifact is still open.
func ScheduleWipe(artifact string) error {
	if err := os.WriteFile(WipeMarkerPath(artifact), []byte("wipe\n"), 0o600); err != nil {
		return fmt.Errorf("store: schedule wipe: %w", err)
	}
	return nil
}

// ApplyPendingWipe checks for the wipe marker and, when present, deletes the
// storage artifact (including WAL/SHM siblings) before consuming the marker.
// It must run before Open.
func ApplyPendingWipe(artifact string) (bool, error) {
	marker := WipeMarkerPath(artifact)
	if _, err := os.Stat(marker); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("store: stat wipe marker: %w", err)
	}
	for _, p := range []string{artifact, artifact + "-wal", artifact + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return false, fmt.Errorf("store: wipe %s: %w", p, err)
		}
	}
	if err := os.Remove(marker); err != nil {
		return true, fmt.Errorf("store: consume wipe marker: %w", err)
	}
	return true, nil
}
