package database

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned when no matching active user row exists.
var ErrUserNotFound = errors.New("user not found")

// Database defines the methods for the system store holding users and
// permission grants.
type Database interface {
	// Close closes the database connection.
	Close() error

	// CreateUser creates a new user row.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByUsername gets an active user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UserExists reports whether any row (active or not) holds the
	// username or email.
	UserExists(ctx context.Context, username, email string) (bool, error)

	// ListUsers lists active users ordered by creation time.
	ListUsers(ctx context.Context) ([]*User, error)

	// UpdateUser persists admin edits to a user.
	UpdateUser(ctx context.Context, user *User) error

	// DeactivateUser soft-deletes a user by clearing the active flag.
	DeactivateUser(ctx context.Context, username string) error

	// TouchLastLogin records a successful login time.
	TouchLastLogin(ctx context.Context, username string) error

	// HasGrant reports whether a grant row matches (username, database,
	// permission type). Queried fresh on every call by design.
	HasGrant(ctx context.Context, username, database, permissionType string) (bool, error)

	// ListGrants lists grant rows for a user, optionally filtered by
	// database name.
	ListGrants(ctx context.Context, username, database string) ([]*PermissionGrant, error)

	// ReplaceGrants deletes every grant row for the user and inserts the
	// given set in one transaction.
	ReplaceGrants(ctx context.Context, username string, grants []*PermissionGrant) error
}
