package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQLite opens the engine database and applies the server migrations.
func OpenSQLite(dbPath string) (*gorm.DB, error) {
	return openWithMigrations(dbPath, ServerMigrations)
}

// OpenPartnerCache opens a partner installation's local cache database.
func OpenPartnerCache(dbPath string) (*gorm.DB, error) {
	return openWithMigrations(dbPath, ClientMigrations)
}

func openWithMigrations(dbPath string, set MigrationSet) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", dbPath)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(database, set); err != nil {
		return nil, fmt.Errorf("apply %s migrations: %w", set.Dir, err)
	}
	return database, nil
}
