package storage

import (
	"errors"

	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
)

var (
	// ErrConflict is returned when a lecture with the same (course, topic) already exists.
	ErrConflict = errors.New("storage: lecture already exists")
	// ErrNotFound is returned when the targeted lecture does not exist.
	ErrNotFound = errors.New("storage: lecture not found")
)

// isUniqueViolation reports whether err is the driver's uniqueness constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
