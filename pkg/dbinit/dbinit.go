// Package dbinit opens the Postgres database of s3ingest and applies its embedded migrations.
package dbinit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path/filepath"
	"slices"
	"time"

	"github.com/amacneil/dbmate/v2/pkg/dbmate"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/postgres" // PostgreSQL driver for dbmate
	_ "github.com/lib/pq"                                 // PostgreSQL driver
)

//go:embed migrations
var migrations embed.FS

// Pool limits of the connections opened by Open.
// The batch lock pins one connection for the duration of a batch.
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// InitializeDatabase creates the database when missing, migrates it and returns an open pool.
func InitializeDatabase(ctx context.Context, databaseURL string, logger *slog.Logger) (*sql.DB, error) {
	parsedURL, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	logger.Info("Initializing database", slog.String("host", parsedURL.Host))

	db, err := newMigrator(parsedURL)
	if err != nil {
		return nil, err
	}
	if err := logMigrations(logger); err != nil {
		return nil, err
	}
	logger.Info("Creating database if not exists")
	if err := db.CreateAndMigrate(); err != nil {
		return nil, fmt.Errorf("failed to create and migrate database: %w", err)
	}
	logger.Info("Database initialization completed successfully")

	return Open(ctx, databaseURL, logger)
}

// MigrateDatabase runs pending migrations on an existing database.
func MigrateDatabase(databaseURL string, logger *slog.Logger) error {
	parsedURL, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("invalid database URL: %w", err)
	}
	logger.Info("Running database migrations", slog.String("host", parsedURL.Host))

	db, err := newMigrator(parsedURL)
	if err != nil {
		return err
	}
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")
	return nil
}

// MigrationNames returns the embedded migration file names in apply order.
func MigrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration files: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Open opens a pool on databaseURL and pings it.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Error("Failed to close database connection", slog.String("error", closeErr.Error()))
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established successfully")
	return sqlDB, nil
}

func newMigrator(u *url.URL) (*dbmate.DB, error) {
	db := dbmate.New(u)
	db.AutoDumpSchema = false
	db.MigrationsDir = []string{"."}

	migrationFS, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration filesystem: %w", err)
	}
	db.FS = migrationFS
	return db, nil
}

func logMigrations(logger *slog.Logger) error {
	names, err := MigrationNames()
	if err != nil {
		return err
	}
	logger.Info("Found migrations", slog.Int("count", len(names)))
	for _, n := range names {
		logger.Debug("Migration file", slog.String("name", n))
	}
	return nil
}
