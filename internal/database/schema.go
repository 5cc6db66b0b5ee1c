package database

import _ "embed"

//go:generate go run ./tools/generate_schema.go schema.sql

// Schema is the current schema snapshot generated from the migration files.
// Tests apply it directly instead of running migrations.
//
//go:embed schema.sql
var Schema string
