package perm

import (
	"context"

	"github.com/backmeup/backmeup/internal/common/cnst"
	"github.com/backmeup/backmeup/internal/apiserver/database"

	"go.uber.org/zap"
)

// GrantSource is the slice of the system store the checker needs.
type GrantSource interface {
	HasGrant(ctx context.Context, username, database, permissionType string) (bool, error)
	ListGrants(ctx context.Context, username, database string) ([]*database.PermissionGrant, error)
}

// Checker answers authorization questions per (user, database, action).
// Every non-admin check queries the grant table fresh so a revocation takes
// effect on the very next action; there is deliberately no cache.
type Checker struct {
	store  GrantSource
	logger *zap.Logger
}

// NewChecker creates a permission checker over the system store.
func NewChecker(store GrantSource, logger *zap.Logger) *Checker {
	return &Checker{
		store:  store,
		logger: logger.Named("perm"),
	}
}

// IsAdmin reports whether the role bypasses all permission checks.
func (c *Checker) IsAdmin(role string) bool {
	return cnst.IsAdminRole(role)
}

// RequiredPermission maps an action to the permission type it needs.
// The second return is false for actions decided without a grant lookup
// (backup is always allowed, create-database is admin-only).
func RequiredPermission(action cnst.Action) (cnst.PermissionType, bool) {
	switch action {
	case cnst.ActionDropDatabase, cnst.ActionDropTable, cnst.ActionDelete:
		return cnst.PermissionDelete, true
	case cnst.ActionCreateTable, cnst.ActionRestore:
		return cnst.PermissionCreate, true
	case cnst.ActionInsert:
		return cnst.PermissionInsert, true
	case cnst.ActionUpdate:
		return cnst.PermissionUpdate, true
	default:
		return "", false
	}
}

// CanPerform decides whether the user may run the action against the
// database. Admins bypass unconditionally. Any store failure denies the
// action; the error never reaches the caller.
func (c *Checker) CanPerform(ctx context.Context, username, role string, databaseName string, action cnst.Action) bool {
	if c.IsAdmin(role) {
		return true
	}

	switch action {
	case cnst.ActionBackup:
		// Backups read data; every user may take one.
		return true
	case cnst.ActionCreateDatabase:
		// Creating databases is reserved for admins.
		return false
	}

	required, ok := RequiredPermission(action)
	if !ok {
		c.logger.Warn("unknown action denied",
			zap.String("username", username),
			zap.String("action", string(action)))
		return false
	}

	has, err := c.store.HasGrant(ctx, username, databaseName, string(required))
	if err != nil {
		// Fail closed: deny on any lookup failure.
		c.logger.Warn("grant lookup failed, denying",
			zap.String("username", username),
			zap.String("database", databaseName),
			zap.String("permission", string(required)),
			zap.Error(err))
		return false
	}
	return has
}

// Grants returns the user's grants keyed by database name. For admins the
// map is nil and unrestricted is true instead of enumerating rows.
func (c *Checker) Grants(ctx context.Context, username, role, databaseName string) (map[string][]string, bool, error) {
	if c.IsAdmin(role) {
		return nil, true, nil
	}

	rows, err := c.store.ListGrants(ctx, username, databaseName)
	if err != nil {
		return nil, false, err
	}

	grants := make(map[string][]string)
	for _, g := range rows {
		grants[g.DatabaseName] = append(grants[g.DatabaseName], g.PermissionType)
	}
	return grants, false, nil
}
