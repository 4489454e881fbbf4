// Package db embeds the schema migrations for every supported driver.
package db

import "embed"

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var Migrations embed.FS

// MigrationsDir returns the directory inside Migrations holding driver's files.
func MigrationsDir(driver string) string {
	if driver == "sqlite" {
		return "migrations/sqlite"
	}
	return "migrations/postgres"
}
