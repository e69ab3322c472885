package database

import "errors"

// ErrNotFound is returned when a requested run does not exist
var ErrNotFound = errors.New("run not found")

// ErrDuplicateRun is returned when a run with the same ID is already stored
var ErrDuplicateRun = errors.New("run already exists")
