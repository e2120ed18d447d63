package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDBPath returns the default path for the skillreflect database.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".skillreflect", "skillreflect.db"), nil
}

// OpenSQLite opens a SQLite database connection with WAL mode enabled and
// appropriate pragmas for performance and reliability.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	// Ensure the directory exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open the database with foreign keys and WAL mode enabled via URI.
	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000",
		dbPath,
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for SQLite (single writer, multiple
	// readers).
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Verify connection and apply additional pragmas.
	if err := configurePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	return db, nil
}

// configurePragmas sets additional SQLite pragmas for optimal performance.
func configurePragmas(db *sql.DB) error {
	pragmas := []string{
		// Synchronous mode: NORMAL provides good durability with
		// better performance than FULL.
		"PRAGMA synchronous = NORMAL",

		// Temp store: Keep temporary tables in memory.
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// SqliteConfig holds the configuration for a SqliteStore.
type SqliteConfig struct {
	// DatabaseFileName is the full path of the database file.
	DatabaseFileName string

	// SkipMigrations skips applying migrations on open if true.
	SkipMigrations bool
}

// SqliteStore is a database store backed by a SQLite file, with migrations
// applied on open.
type SqliteStore struct {
	cfg *SqliteConfig

	*Store
}

// NewSqliteStore opens the SQLite database at the configured path, applies
// any pending migrations, and returns a store wrapping the connection.
func NewSqliteStore(cfg *SqliteConfig, log *slog.Logger) (*SqliteStore, error) {
	sqlDB, err := OpenSQLite(cfg.DatabaseFileName)
	if err != nil {
		return nil, err
	}

	if !cfg.SkipMigrations {
		if err := applySqliteMigrations(sqlDB, log); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf(
				"failed to apply migrations: %w", err,
			)
		}
	}

	return &SqliteStore{
		cfg:   cfg,
		Store: NewStore(sqlDB, log),
	}, nil
}

// applySqliteMigrations applies all pending migrations from the embedded
// migration file system to the given database.
func applySqliteMigrations(sqlDB *sql.DB, log *slog.Logger) error {
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	return applyMigrations(
		sqlSchemas, driver, "migrations", "skillreflect",
		TargetLatest, defaultMigrateOptions(), log,
	)
}
