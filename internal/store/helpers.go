package store

import (
	"strings"
	"time"
)

// now returns the current UTC time formatted with millisecond precision.
func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// Now returns the current UTC time in the store's timestamp format.
func Now() string { return now() }

// isUniqueViolation reports whether err is a SQLite unique or primary key
// constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}
