// Package migrations embeds the goose SQL migrations. The SQL is kept
// portable across Postgres and SQLite: TEXT ids and RFC 3339 timestamps.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
