package app

import (
	"context"
	"fmt"

	"github.com/cantian-ai/bazigate/internal/config"
	"github.com/cantian-ai/bazigate/internal/db"
	"github.com/cantian-ai/bazigate/internal/models"
	"github.com/cantian-ai/bazigate/internal/store"
	"gorm.io/gorm"
)

// HasUsers reports whether at least one user account exists.
func HasUsers(conn *gorm.DB) (bool, error) {
	if conn == nil {
		return false, fmt.Errorf("nil db")
	}
	if !conn.Migrator().HasTable(&models.User{}) {
		return false, nil
	}
	var count int64
	if errCount := conn.Model(&models.User{}).Count(&count).Error; errCount != nil {
		return false, errCount
	}
	return count > 0, nil
}

// CreateUser opens the configured database and creates an account.
func CreateUser(ctx context.Context, cfg config.AppConfig, params store.CreateUserParams) (*models.User, error) {
	conf, err := config.Load(config.ResolveConfigPath(cfg.ConfigPath))
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(conf.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close(conn) }()
	return CreateUserWithConn(ctx, conn, params)
}

// CreateUserWithConn migrates conn and creates an account on it.
func CreateUserWithConn(ctx context.Context, conn *gorm.DB, params store.CreateUserParams) (*models.User, error) {
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return nil, errMigrate
	}
	return store.NewUserStore(conn).Create(ctx, params)
}
