package db

import (
	"booknet/internal/domain" // Importing domain models
	"fmt"                     // Error wrapping

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM logger levels
)

// Open connects to MySQL with driver errors translated to GORM sentinels
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn // Only slow queries and errors by default
	if debug {
		level = logger.Info
	}
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,                          // Duplicate keys become gorm.ErrDuplicatedKey
		Logger:         logger.Default.LogMode(level), // Query logging
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return gdb, nil
}

// AutoMigrate creates or updates tables, foreign keys, constraints, columns and indexes
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&domain.User{}, &domain.Profile{}, &domain.Cart{}, &domain.CartItem{})
}

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	gdb, err := Open(dsn, false) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	if err := AutoMigrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}
