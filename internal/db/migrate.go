package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending migration for the connection's dialect.
func Migrate(db *sqlx.DB) error {
	m, release, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer release()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: migrate up: %w", err)
	}
	return nil
}

// Version reports the applied schema version.
func Version(db *sqlx.DB) (uint, bool, error) {
	m, release, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	defer release()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// newMigrator builds a migrator over db. The release func frees what the
// migrator holds without closing db itself.
func newMigrator(db *sqlx.DB) (*migrate.Migrate, func(), error) {
	var dir string
	switch db.DriverName() {
	case DriverPostgres:
		dir = "migrations/postgres"
	case DriverSQLite:
		dir = "migrations/sqlite3"
	default:
		return nil, nil, fmt.Errorf("db: no migrations for driver %q", db.DriverName())
	}

	driver, closeDriver, err := migrationDriver(db)
	if err != nil {
		return nil, nil, fmt.Errorf("db: migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		closeDriver()
		return nil, nil, fmt.Errorf("db: migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.DriverName(), driver)
	if err != nil {
		_ = src.Close()
		closeDriver()
		return nil, nil, fmt.Errorf("db: migrator: %w", err)
	}

	return m, func() {
		_ = src.Close()
		closeDriver()
	}, nil
}

// migrationDriver wraps db for golang-migrate. Postgres gets a connection of
// its own for the advisory lock, handed back to the pool by closeDriver.
// The sqlite3 driver's Close would close db, so it is never called.
func migrationDriver(db *sqlx.DB) (database.Driver, func(), error) {
	if db.DriverName() == DriverSQLite {
		driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		return driver, func() {}, err
	}

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, nil, err
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return driver, func() { _ = driver.Close() }, nil
}
