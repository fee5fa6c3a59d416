package database

import "time"

// UserRole represents the role of a user
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superadmin"
	RoleUser       UserRole = "user"
)

// User represents an application user. Users are soft-deleted by clearing
// IsActive; rows are never removed.
type User struct {
	ID        uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username  string     `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Email     string     `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string     `json:"-" gorm:"not null"` // bcrypt hash, never exposed in JSON
	FullName  string     `json:"fullName" gorm:"type:varchar(100)"`
	Role      UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	IsActive  bool       `json:"isActive" gorm:"not null;default:true"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// PermissionGrant authorizes one user to perform one permission type on one
// database. Grants for a user are replaced wholesale on save, never merged.
type PermissionGrant struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Username       string    `json:"username" gorm:"type:varchar(50);index;not null"`
	DatabaseName   string    `json:"databaseName" gorm:"type:varchar(64);index;not null"`
	PermissionType string    `json:"permissionType" gorm:"type:varchar(16);not null"`
	GrantedBy      string    `json:"grantedBy" gorm:"type:varchar(50)"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TableName keeps the storage name aligned with the documented schema.
func (PermissionGrant) TableName() string {
	return "user_permissions"
}
