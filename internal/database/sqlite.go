package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ConnectSQLite opens the local SQLite database used when no Postgres DSN is
// configured. The feedback log is append-only, so a single-file store is
// sufficient for interactive write volumes.
func ConnectSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path must not be empty")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Serializes concurrent appends from multiple sessions.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
