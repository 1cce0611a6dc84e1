package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/dagaz/internal/models"
)

// SecurityRecord returns the singleton security row. A zero-value record is
// returned when none has been created yet.
func (db *DB) SecurityRecord() (models.SecurityRecord, error) {
	row := db.conn.QueryRow(`
		SELECT password_hash, question1, answer1_hash, question2, answer2_hash
		FROM security WHERE id = 1`)
	var rec models.SecurityRecord
	err := row.Scan(&rec.PasswordHash, &rec.Question1, &rec.Answer1Hash, &rec.Question2, &rec.Answer2Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SecurityRecord{}, nil
	}
	if err != nil {
		return models.SecurityRecord{}, fmt.Errorf("store: read security record: %w", err)
	}
	return rec, nil
}

// SaveSecurityRecord upserts the singleton security row. Clearing the gate
// writes empty fields back rather than deleting the row.
func (db *DB) SaveSecurityRecord(rec models.SecurityRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO security (id, password_hash, question1, answer1_hash, question2, answer2_hash)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			password_hash = excluded.password_hash,
			question1     = excluded.question1,
			answer1_hash  = excluded.answer1_hash,
			question2     = excluded.question2,
			answer2_hash  = excluded.answer2_hash`,
		rec.PasswordHash, rec.Question1, rec.Answer1Hash, rec.Question2, rec.Answer2Hash)
	if err != nil {
		return fmt.Errorf("store: save security record: %w", err)
	}
	return nil
}
