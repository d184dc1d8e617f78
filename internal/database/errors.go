package database

import "errors"

var (
	// ErrTestNotFound is returned when a test id does not exist.
	ErrTestNotFound = errors.New("test not found")

	// ErrDatabaseNotFound is returned by Open when the database file does not
	// exist and CreateIfNotExists is false.
	ErrDatabaseNotFound = errors.New("database not found")
)
