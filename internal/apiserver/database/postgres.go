package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/backmeup/backmeup/internal/common/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Postgres implements the Database interface using PostgreSQL
type Postgres struct {
	db  *gorm.DB
	cfg *config.DatabaseConfig
}

// NewPostgres creates a new Postgres instance
func NewPostgres(cfg *config.DatabaseConfig) (Database, error) {
	db := &Postgres{
		cfg: cfg,
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		db.cfg.Host, db.cfg.Port, db.cfg.User, db.cfg.Password, db.cfg.DBName)

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
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
func (db *Postgres) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *Postgres) CreateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, db.db).Create(user).Error
}

func (db *Postgres) GetUserByUsername(ctx context.Context, username string) (*User, error) {
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

func (db *Postgres) UserExists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := getDBFromContext(ctx, db.db).
		Model(&User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (db *Postgres) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	err := getDBFromContext(ctx, db.db).
		Where("is_active = ?", true).
		Order("created_at desc").
		Find(&users).Error
	return users, err
}

func (db *Postgres) UpdateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, db.db).Save(user).Error
}

func (db *Postgres) DeactivateUser(ctx context.Context, username string) error {
	return getDBFromContext(ctx, db.db).
		Model(&User{}).
		Where("username = ?", username).
		Update("is_active", false).Error
}

func (db *Postgres) TouchLastLogin(ctx context.Context, username string) error {
	now := time.Now()
	return getDBFromContext(ctx, db.db).
		Model(&User{}).
		Where("username = ?", username).
		Update("last_login", &now).Error
}

func (db *Postgres) HasGrant(ctx context.Context, username, database, permissionType string) (bool, error) {
	var count int64
	err := getDBFromContext(ctx, db.db).
		Model(&PermissionGrant{}).
		Where("username = ? AND database_name = ? AND permission_type = ?",
			username, database, permissionType).
		Count(&count).Error
	return count > 0, err
}

func (db *Postgres) ListGrants(ctx context.Context, username, database string) ([]*PermissionGrant, error) {
	var grants []*PermissionGrant
	q := getDBFromContext(ctx, db.db).Where("username = ?", username)
	if database != "" {
		q = q.Where("database_name = ?", database)
	}
	err := q.Order("database_name, permission_type").Find(&grants).Error
	return grants, err
}

func (db *Postgres) ReplaceGrants(ctx context.Context, username string, grants []*PermissionGrant) error {
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
func (db *Postgres) GormDB() *gorm.DB {
	return db.db
}
