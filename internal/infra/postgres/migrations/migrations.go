package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema changes, registered one per file.
var Migrations = migrate.NewMigrations()
