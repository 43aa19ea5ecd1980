// Package database opens the GORM handle the store runs on and keeps its schema current.
// This file has two responsibilities:
//  1. Opening a connection. The app is local-first, so the default DSN is a sqlite file;
//     a postgres:// URL is accepted for development against a shared database.
//  2. Running the SQL migrations embedded under migrations/<dialect>/.
package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations
var migrationFS embed.FS

// Dialect names the SQL flavour behind a DSN.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// sqlitePragmas are appended to sqlite DSNs that carry no options of their own.
// WAL lets readers run alongside the single writer; immediate transactions take the
// write lock up front so two writers never deadlock upgrading a read lock.
const sqlitePragmas = "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate"

// DialectOf picks the dialect from the DSN scheme.
func DialectOf(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Connect opens the database behind dsn. SQL logging goes through logger at warn level
// (slow queries and errors only).
func Connect(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch DialectOf(dsn) {
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	default:
		if !strings.Contains(dsn, "?") {
			dsn += "?" + sqlitePragmas
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(slog.NewLogLogger(logger.Handler(), slog.LevelWarn), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", DialectOf(dsn), err)
	}
	return db, nil
}

// RunMigrations applies any pending "up" migrations for the dialect. The migrate library
// records applied versions in schema_migrations, so running this on every start is safe.
//
// The migrator is left open: closing it would close the *sql.DB it shares
// with db.
func RunMigrations(db *gorm.DB, dialect Dialect) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("getting sql handle: %w", err)
	}

	src, err := iofs.New(migrationFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("loading %s migrations: %w", dialect, err)
	}

	var driver migratedb.Driver
	switch dialect {
	case DialectPostgres:
		driver, err = migratepg.WithInstance(sqlDB, &migratepg.Config{})
	default:
		driver, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("preparing %s migration driver: %w", dialect, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(dialect), driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	// ErrNoChange just means the schema is already current.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying %s migrations: %w", dialect, err)
	}
	return nil
}

// Open connects and migrates in one step; it is what main and the tests use.
func Open(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	db, err := Connect(dsn, logger)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db, DialectOf(dsn)); err != nil {
		return nil, err
	}
	return db, nil
}
