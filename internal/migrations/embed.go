// Package migrations embeds the goose schema migrations for both record
// store dialects. Each dialect lives in its own directory.
package migrations

import "embed"

const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS
