// Package migrations holds the schema migrations of the ranking tables.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry applied by postgres.Store.Migrate.
var Migrations = migrate.NewMigrations()

func init() {
	// IDs come from the file names of registered migrations.
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
