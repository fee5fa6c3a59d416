package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/backmeup/backmeup/internal/common/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQL implements the Database interface using MySQL
type MySQL struct {
	db  *gorm.DB
	cfg *config.DatabaseConfig
}

// NewMySQL creates a new MySQL instance
func NewMySQL(cfg *config.DatabaseConfig) (Database, error) {
	db := &MySQL{
		cfg: cfg,
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		db.cfg.User, db.cfg.Password, db.cfg.Host, db.cfg.Port, db.cfg.DBName)

	gormDB, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := gormDB.AutoMigrate(&User{}, &PermissionGrant{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db.db = gormDB
	return db, nil
}

// GormDB exposes the underlying connection so the server admin layer can
// share the single live connection instead of opening a second one.
func (db *MySQL) GormDB() *gorm.DB {
	return db.db
}

// Close closes the database connection
func (db *MySQL) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *MySQL) CreateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, db.db).Create(user).Error
}

func (db *MySQL) GetUserByUsername(ctx context.Context, username string) (*User, error) {
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

func (db *MySQL) UserExists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := getDBFromContext(ctx, db.db).
		Model(&User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (db *MySQL) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	err := getDBFromContext(ctx, db.db).
		Where("is_active = ?", true).
		Order("created_at desc").
		Find(&users).Error
	return users, err
}

func (db *MySQL) UpdateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, db.db).Save(user).Error
}

func (db *MySQL) DeactivateUser(ctx context.Context, username string) error {
	return getDBFromContext(ctx, db.db).
		Model(&User{}).
		Where("username = ?", username).
		Update("is_active", false).Error
}

func (db *MySQL) TouchLastLogin(ctx context.Context, username string) error {
	now := time.Now()
	return getDBFromContext(ctx, db.db).
		Model(&User{}).
		Where("username = ?", username).
		Update("last_login", &now).Error
}

func (db *MySQL) HasGrant(ctx context.Context, username, database, permissionType string) (bool, error) {
	var count int64
	err := getDBFromContext(ctx, db.db).
		Model(&PermissionGrant{}).
		Where("username = ? AND database_name = ? AND permission_type = ?",
			username, database, permissionType).
		Count(&count).Error
	return count > 0, err
}

func (db *MySQL) ListGrants(ctx context.Context, username, database string) ([]*PermissionGrant, error) {
	var grants []*PermissionGrant
	q := getDBFromContext(ctx, db.db).Where("username = ?", username)
	if database != "" {
		q = q.Where("database_name = ?", database)
	}
	err := q.Order("database_name, permission_type").Find(&grants).Error
	return grants, err
}

func (db *MySQL) ReplaceGrants(ctx context.Context, username string, grants []*PermissionGrant) error {
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
