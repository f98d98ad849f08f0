// Package repository holds the MySQL persistence for the audit daemon and
// the sentinel errors shared by its callers.  Handlers translate
// ErrNotFound into 404 and the queue consumer treats ErrConflict on insert
// as an already-stored event.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with an existing row,
// such as a redelivered event with an event id already stored.
var ErrConflict = errors.New("conflict")
