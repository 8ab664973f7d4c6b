// Package migrations embeds the schema scripts for the SQL backends.
package migrations

import "embed"

// FS holds sqlite/*.sql and postgres/*.sql, applied in lexical order.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
