// Package schema holds the PostgreSQL migrations applied by dbwriter.Migrate.
package schema

import "embed"

// FS contains every *.up.sql / *.down.sql migration in this directory.
//
//go:embed *.sql
var FS embed.FS
