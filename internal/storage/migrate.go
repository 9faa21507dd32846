package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// runMigrations applies every pending up migration for the dialect.
//
// SQLite migrations run on conn itself so that in-memory databases see the
// schema. Postgres migrations use a separate connection because the migrate
// driver pins one for its lifetime.
func runMigrations(conn *sql.DB, dialect Dialect, dsn string) error {
	var (
		driver database.Driver
		name   string
		err    error
	)

	switch dialect {
	case Postgres:
		migrateDB, openErr := sql.Open("pgx", dsn)
		if openErr != nil {
			return fmt.Errorf("open migration database: %w", openErr)
		}
		driver, err = pgxmigrate.WithInstance(migrateDB, &pgxmigrate.Config{})
		if err != nil {
			migrateDB.Close()
			return fmt.Errorf("create pgx migrate driver: %w", err)
		}
		// Closing the driver closes migrateDB.
		defer driver.Close()
		name = "pgx5"
	default:
		driver, err = sqlite.WithInstance(conn, &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("create sqlite migrate driver: %w", err)
		}
		name = "sqlite"
	}

	src, err := iofs.New(migrationsFS, "migrations/"+dialect.String())
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
