// Package migrations holds the numbered up/down SQL files applied by the
// SQLite store on open.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
