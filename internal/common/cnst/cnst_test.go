package cnst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSystemDatabase(t *testing.T) {
	assert.True(t, IsSystemDatabase("mysql"))
	assert.True(t, IsSystemDatabase("information_schema"))
	assert.False(t, IsSystemDatabase("sales"))
}

func TestValidPermissionType(t *testing.T) {
	assert.True(t, ValidPermissionType("INSERT"))
	assert.True(t, ValidPermissionType("CREATE"))
	assert.False(t, ValidPermissionType("insert"))
	assert.False(t, ValidPermissionType("DROP"))
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleUser, NormalizeRole(""))
	assert.Equal(t, RoleUser, NormalizeRole("  "))
	assert.Equal(t, RoleAdmin, NormalizeRole("Admin"))
	assert.Equal(t, RoleSuperAdmin, NormalizeRole("SUPERADMIN"))
}

func TestIsAdminRole(t *testing.T) {
	assert.True(t, IsAdminRole("admin"))
	assert.True(t, IsAdminRole("SuperAdmin"))
	assert.False(t, IsAdminRole("user"))
	assert.False(t, IsAdminRole(""))
}
