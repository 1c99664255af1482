package db

import (
	"fmt"

	"github.com/cantian-ai/bazigate/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(&models.User{}); errAutoMigrate != nil {
		return fmt.Errorf("db: auto migrate: %w", errAutoMigrate)
	}
	if errIdx := conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower
		ON users (LOWER(username))
	`).Error; errIdx != nil {
		return fmt.Errorf("db: create index idx_users_username_lower: %w", errIdx)
	}
	return nil
}

// migrateSQLite applies SQLite-specific schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(&models.User{}); errAutoMigrate != nil {
		return fmt.Errorf("db: auto migrate: %w", errAutoMigrate)
	}
	if errIdx := conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_nocase
		ON users (username COLLATE NOCASE)
	`).Error; errIdx != nil {
		return fmt.Errorf("db: create index idx_users_username_nocase: %w", errIdx)
	}
	return nil
}
