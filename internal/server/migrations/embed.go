package migrations

import "embed"

// Migrations holds the goose migrations for every supported engine, one
// directory per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
