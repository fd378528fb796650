// Package db opens the remote store.
package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/repos"
)

// DefaultSQLiteDSN is used when the sqlite driver is selected without a DSN.
const DefaultSQLiteDSN = "file:workbook.db?_foreign_keys=on"

// Open connects to the remote store and migrates every table.
func Open(driver, dsn string, log *logger.Logger) (*gorm.DB, error) {
	log = logger.OrNop(log).With("service", "db")

	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		if dsn == "" {
			return nil, fmt.Errorf("postgres requires a dsn")
		}
		dialector = postgres.Open(dsn)
	case "", "sqlite", "sqlite3":
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		dialector = sqlite.Open(dsn)
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	log.Info("Connecting to database...", "driver", driver)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		// SQLite has a single writer; shared in-memory databases also need
		// every query on the same connection.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := AutoMigrateAll(gdb, log); err != nil {
		return nil, err
	}
	return gdb, nil
}

// AutoMigrateAll creates or updates every table.
func AutoMigrateAll(gdb *gorm.DB, log *logger.Logger) error {
	log = logger.OrNop(log)
	log.Info("Auto migrating tables...")
	err := gdb.AutoMigrate(repos.Models()...)
	if err != nil {
		log.Error("Auto migration failed", "error", err)
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
