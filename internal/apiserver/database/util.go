package database

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitDefaultAdmin creates the initial admin account when no admin exists,
// so a fresh install is never locked out.
func InitDefaultAdmin(db *gorm.DB, username, password string) error {
	ctx := context.Background()

	var count int64
	if err := db.Model(&User{}).
		Where("role IN ?", []UserRole{RoleAdmin, RoleSuperAdmin}).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		// An admin already exists
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &User{
		Username:  username,
		Email:     username + "@localhost",
		Password:  string(hashed),
		FullName:  "Administrator",
		Role:      RoleAdmin,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	return db.WithContext(ctx).Create(admin).Error
}
