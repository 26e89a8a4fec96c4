package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// PostgreSQL (error code 23505)
	if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
		return true
	}

	// MySQL (error code 1062)
	if strings.Contains(err.Error(), "Error 1062") {
		return true
	}

	// SQLite (error code 2067)
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return true
	}

	return false
}

// IsConflictErr reports whether err is a transient contention failure worth
// retrying: duplicate key, serialization failure, lock timeout, or a busy
// sqlite handle.
func IsConflictErr(err error) bool {
	if err == nil {
		return false
	}

	if IsDuplicateKeyErr(err) {
		return true
	}

	msg := err.Error()

	// PostgreSQL serialization (40001) and deadlock (40P01)
	if strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "deadlock detected") {
		return true
	}

	// PostgreSQL lock timeout (55P03)
	if strings.Contains(msg, "lock timeout") ||
		strings.Contains(msg, "could not obtain lock") {
		return true
	}

	// MySQL lock wait (1205) and deadlock (1213)
	if strings.Contains(msg, "Error 1205") || strings.Contains(msg, "Error 1213") {
		return true
	}

	// SQLite busy / locked
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") {
		return true
	}

	return false
}
