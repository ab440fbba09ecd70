package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

type Options struct {
	Driver      string
	DSN         string
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

func Connect(ctx context.Context, opts Options) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch opts.Driver {
	case DriverPostgres, "":
		db, err = connectPostgres(opts)
	case DriverSQLite:
		db, err = connectSQLite(opts)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	// Fail fast on startup if the database is unreachable
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db: failed to connect: %w", err)
	}

	var tmp int
	if err := db.QueryRowContext(pingCtx, "SELECT 1").Scan(&tmp); err != nil {
		db.Close()
		return nil, fmt.Errorf("db: health check failed: %w", err)
	}

	return db, nil
}

func connectPostgres(opts Options) (*sqlx.DB, error) {
	cfg, err := pgx.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("db: failed to parse DSN: %w", err)
	}
	cfg.ConnectTimeout = 5 * time.Second

	// sqlx on top of pgx's database/sql adapter for struct scanning
	db := sqlx.NewDb(stdlib.OpenDB(*cfg), DriverPostgres)

	if opts.MaxOpen > 0 {
		db.SetMaxOpenConns(opts.MaxOpen)
	}
	if opts.MaxIdle > 0 {
		db.SetMaxIdleConns(opts.MaxIdle)
	}
	if opts.MaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.MaxLifetime)
	}
	return db, nil
}

func connectSQLite(opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open(DriverSQLite, sqliteDSN(opts.DSN))
	if err != nil {
		return nil, fmt.Errorf("db: failed to open sqlite: %w", err)
	}

	// one writer at a time, otherwise concurrent requests hit SQLITE_BUSY
	db.SetMaxOpenConns(1)
	return db, nil
}

// sqliteDSN turns on foreign key enforcement, which sqlite leaves off per connection.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}
