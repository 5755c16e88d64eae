// utils/database.go
package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const defaultSQLitePath = "/tmp/squash_data/squash_tracker.db"

// resolveDatabaseTarget picks the driver and DSN from the environment.
// An explicit DATABASE_URL wins (cloud deployments set it); otherwise
// DB_TYPE selects postgresql or sqlite, defaulting to a local sqlite file.
// filePath is the on-disk database file for file-backed stores, "" for
// server-backed ones; the backup manager copies that file.
func resolveDatabaseTarget() (driver, dsn, filePath string) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		if path, ok := strings.CutPrefix(url, "sqlite:///"); ok {
			return "sqlite", path, path
		}
		return "postgres", url, ""
	}

	switch os.Getenv("DB_TYPE") {
	case "postgresql":
		host := getEnv("POSTGRES_HOST", "localhost")
		port := getEnv("POSTGRES_PORT", "5432")
		user := getEnv("POSTGRES_USER", "postgres")
		password := os.Getenv("POSTGRES_PASSWORD")
		database := getEnv("POSTGRES_DB", "squash_tracker")
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, database)
		return "postgres", dsn, ""
	default:
		path := getEnv("SQLITE_PATH", defaultSQLitePath)
		return "sqlite", path, path
	}
}

// OpenDatabase connects to the configured store and returns the handle along
// with the data file path ("" when the store is not file-backed).
func OpenDatabase() (*gorm.DB, string, error) {
	driver, dsn, filePath := resolveDatabaseTarget()

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, "", fmt.Errorf("failed to create database directory: %w", err)
		}
		log.Printf("Using SQLite database: %s", dsn)
		dialector = sqlite.Open(dsn)
	default:
		log.Println("Using PostgreSQL database")
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, filePath, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
