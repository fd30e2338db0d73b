// Package migrations embeds the SQL schema, one directory per storage engine.
package migrations

import "embed"

// FS holds postgres/ and sqlite3/ migration files.
//
//go:embed postgres/*.sql sqlite3/*.sql
var FS embed.FS
