// Package migrations embeds the SQL schema of the local client database.
package migrations

import "embed"

// Migrations holds goose-formatted SQL files applied by storage.RunMigrations.
//
//go:embed *.sql
var Migrations embed.FS
