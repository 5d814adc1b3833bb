package database

import "errors"

var (
	// ErrOpen is returned when the database cannot be opened or verified.
	ErrOpen = errors.New("database: open failed")

	// ErrMigration is returned when a schema migration cannot be loaded or applied.
	ErrMigration = errors.New("database: migration failed")
)
