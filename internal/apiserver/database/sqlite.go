package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/backmeup/backmeup/internal/common/config"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// SQLite implements the Database interface using SQLite
type SQLite struct {
	db  *gorm.DB
	cfg *config.DatabaseConfig
}

// NewSQLite creates a new SQLite instance
func NewSQLite(cfg *config.DatabaseConfig) (Database, error) {
	db := &SQLite{
		cfg: cfg,
	}

	dir := filepath.Dir(db.cfg.DBName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	gormDB, err := gorm.Open(sqlite.Open(db.cfg.DBName), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := gormDB.AutoMigrate(&User{}, &PermissionGrant{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db.db = gormDB
	return db, nil
}

// Close closes the database connection
func (db *SQLite) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *SQLite) CreateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, db.db).Create(user).Error
}

func (db *SQLite) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := getDBFromContext(ctx, db.db).
		Where("username = ? AND is_active = ?", username, true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *SQLite) UserExists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := getDBFromContext(ctx, db.db).
		Model(&User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (db *SQLite) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	err := getDBFromContext(ctx, db.db).
		Where("is_active = ?", true).
		Order("created_at desc").
		Find(&users).Error
	return users, err
}

func (db *SQLite) UpdateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, db.db).Save(user).Error
}

func (db *SQLite) DeactivateUser(ctx context.Context, username string) error {
	return getDBFromContext(ctx, db.db).
		Model(&User{}).
		Where("username = ?", username).
		Update("is_active", false).Error
}

func (db *SQLite) TouchLastLogin(ctx context.Context, username string) error {
	now := time.Now()
	return getDBFromContext(ctx, db.db).
		Model(&User{}).
		Where("username = ?", username).
		Update("last_login", &now).Error
}

func (db *SQLite) HasGrant(ctx context.Context, username, database, permissionType string) (bool, error) {
	var count int64
	err := getDBFromContext(ctx, db.db).
		Model(&PermissionGrant{}).
		Where("username = ? AND database_name = ? AND permission_type = ?",
			username, database, permissionType).
		Count(&count).Error
	return count > 0, err
}

func (db *SQLite) ListGrants(ctx context.Context, username, database string) ([]*PermissionGrant, error) {
	var grants []*PermissionGrant
	q := getDBFromContext(ctx, db.db).Where("username = ?", username)
	if database != "" {
		q = q.Where("database_name = ?", database)
	}
	err := q.Order("database_name, permission_type").Find(&grants).Error
	return grants, err
}

func (db *SQLite) ReplaceGrants(ctx context.Context, username string, grants []*PermissionGrant) error {
	return db.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).Delete(&PermissionGrant{}).Error; err != nil {
			return err
		}
		if len(grants) == 0 {
			return nil
		}
		return tx.Create(grants).Error
	})
}

// GormDB exposes the underlying connection for bootstrap tasks.
func (db *SQLite) GormDB() *gorm.DB {
	return db.db
}
