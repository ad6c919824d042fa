// Package migrations embeds the SQL schema migrations applied by cmd/migrate
// and by the API server when DB_AUTO_MIGRATE is set.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
