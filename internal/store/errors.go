package store

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a referenced material or request does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrSelfRequest is returned when a user requests their own material.
	ErrSelfRequest = errors.New("cannot request own material")
	// ErrNotOwner is returned when someone other than the material owner answers a request.
	ErrNotOwner = errors.New("not the owner of the requested material")
	// ErrInvalidStatus is returned for a response status other than Accepted or Rejected.
	ErrInvalidStatus = errors.New("invalid request status")
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}
