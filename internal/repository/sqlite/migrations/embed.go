package migrations

import "embed"

// FS holds the SQLite schema, applied in filename order.
//
//go:embed *.sql
var FS embed.FS
