package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write loses an optimistic-concurrency race.
var ErrConflict = errors.New("version conflict")

// ErrDuplicateEmail is returned when a user email is already taken.
var ErrDuplicateEmail = errors.New("email already exists")
