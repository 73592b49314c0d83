// Package migrations embeds the SQL schema applied by goose.
package migrations

import "embed"

// FS holds the versioned SQL files.
//
//go:embed *.sql
var FS embed.FS
