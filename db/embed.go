// Package db provides embedded database schema and migration files.
package db

import _ "embed"

// Schema contains the PostgreSQL DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SQLiteSchema is the SQLite rendition of Schema. Prices are stored as TEXT
// and timestamps as unix microseconds.
//
//go:embed migrations/sqlite/001_schema.sql
var SQLiteSchema string
