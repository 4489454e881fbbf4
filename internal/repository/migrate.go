package repository

import (
	"errors"
	"fmt"

	"kb-service/db"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
)

// Migrate applies the embedded migrations for driver. For postgres url is the
// connection URL, for sqlite it is the database file path.
func Migrate(driver, url string) error {
	src, err := iofs.New(db.Migrations, db.MigrationsDir(driver))
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	databaseURL := url
	if driver == "sqlite" {
		databaseURL = "sqlite://" + url
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	log.WithField("driver", driver).Info("Starting database migration...")
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not apply migration: %w", err)
	}
	log.Info("Database migration finished successfully.")

	return nil
}
