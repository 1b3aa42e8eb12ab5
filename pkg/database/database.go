// Package database opens the gorm connection shared by all repositories.
//
// It supports SQLite (glebarez, pure Go) and PostgreSQL (pgx) through the same
// codebase, runs auto-migration of the row models and counts statements so
// callers can assert how many round-trips an operation cost.
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/persistence/dto"
)

// Database wraps a gorm connection with statement diagnostics.
type Database struct {
	db     *gorm.DB
	config *Config
	sql    *statementLogger
}

// Open connects to the database described by config. The schema is not
// migrated; call Migrate for that.
func Open(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		if config.SQLite.Path != MemoryPath {
			if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		// - journal_mode(WAL): concurrent readers, single writer
		// - busy_timeout(5000): wait up to 5 seconds when the database is locked
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)

	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.DSN())

	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	sqlLog := newStatementLogger(config.TraceSQL)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: sqlLog})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	switch config.Type {
	case DatabaseTypeSQLite:
		// One connection: a single writer, and an in-memory database lives
		// exactly as long as its connection.
		sqlDB.SetMaxOpenConns(1)
	case DatabaseTypePostgres:
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	logger.Debug("database opened", logger.KeyDatabase, string(config.Type))

	return &Database{db: db, config: config, sql: sqlLog}, nil
}

// OpenAndMigrate opens the database and brings the schema up to date.
func OpenAndMigrate(ctx context.Context, config *Config) (*Database, error) {
	d, err := Open(config)
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// Migrate runs gorm auto-migration for every row model.
func (d *Database) Migrate(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(dto.AllModels()...); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}
	logger.Debug("database migrated", logger.KeyDatabase, string(d.config.Type), logger.KeyCount, len(dto.AllModels()))
	return nil
}

// DB returns the underlying GORM database connection.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Type returns the backend in use.
func (d *Database) Type() DatabaseType {
	return d.config.Type
}

// Config returns the effective configuration.
func (d *Database) Config() *Config {
	return d.config
}

// StatementCount returns the number of SQL statements executed so far.
func (d *Database) StatementCount() int64 {
	return d.sql.count.Load()
}

// ResetStatementCount zeroes the statement counter.
func (d *Database) ResetStatementCount() {
	d.sql.count.Store(0)
}

// SetTraceSQL toggles debug logging of every statement.
func (d *Database) SetTraceSQL(enabled bool) {
	d.sql.trace.Store(enabled)
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsUniqueViolation reports whether err is a unique constraint violation
// raised by either backend.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "duplicate key value violates unique constraint")
}

// IsNotFound reports whether err is gorm's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
