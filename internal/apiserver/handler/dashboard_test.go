package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/backmeup/backmeup/internal/apiserver/database"
	"github.com/backmeup/backmeup/internal/apiserver/middleware"
	"github.com/backmeup/backmeup/internal/backup"
	"github.com/backmeup/backmeup/internal/common/dto"
	"github.com/backmeup/backmeup/internal/dbadmin"
)

func TestDashboardHandler_Stats(t *testing.T) {
	env := newTestEnv(t)
	logger := zap.NewNop()
	admin := addUser(t, env.db, "root", "admin-password1", database.RoleAdmin)

	dir := t.TempDir()
	inv := backup.NewInventory(dir, logger)
	now := time.Now()
	name := backup.Filename("sales", now.Add(-2*time.Hour))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), make([]byte, 2048), 0o644))
	assert.NoError(t, os.Chtimes(filepath.Join(dir, name), now.Add(-2*time.Hour), now.Add(-2*time.Hour)))

	// A SQLite-backed admin cannot answer MySQL catalog queries; the
	// handler degrades those counters instead of failing.
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	h := NewDashboardHandler(env.db, dbadmin.New(gdb, logger), inv, logger)
	h.now = func() time.Time { return now }

	env.router.GET("/api/dashboard/stats", middleware.JWTAuthMiddleware(testJWT, env.tokens), h.Stats)

	w := doJSON(env.router, "GET", "/api/dashboard/stats", bearer(t, admin), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var stats dto.DashboardStats
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Backups)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, "2.00 KB", stats.StorageUsed)
	assert.Equal(t, "2 hours ago", stats.LastBackup)
}

func TestDashboardHandler_EmptyInventory(t *testing.T) {
	env := newTestEnv(t)
	logger := zap.NewNop()
	admin := addUser(t, env.db, "root", "admin-password1", database.RoleAdmin)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	h := NewDashboardHandler(env.db, dbadmin.New(gdb, logger), backup.NewInventory(t.TempDir(), logger), logger)

	env.router.GET("/api/dashboard/stats", middleware.JWTAuthMiddleware(testJWT, env.tokens), h.Stats)
	w := doJSON(env.router, "GET", "/api/dashboard/stats", bearer(t, admin), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var stats dto.DashboardStats
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.Backups)
	assert.Equal(t, "Never", stats.LastBackup)
	assert.Equal(t, "0 B", stats.StorageUsed)
}
