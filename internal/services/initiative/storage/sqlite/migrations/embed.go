package migrations

import "embed"

// FS contains embedded SQLite migrations for initiative storage.
//
//go:embed *.sql
var FS embed.FS
