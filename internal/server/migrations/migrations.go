// Package migrations embeds the SQL schema migrations applied by goose on
// startup. The statements are portable between PostgreSQL and SQLite.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
