package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/backmeup/backmeup/internal/apiserver/database"
	"github.com/backmeup/backmeup/internal/apiserver/middleware"
	"github.com/backmeup/backmeup/internal/common/config"
	"github.com/backmeup/backmeup/internal/common/dto"
	"github.com/backmeup/backmeup/internal/dbadmin"
	"github.com/backmeup/backmeup/internal/perm"
	"github.com/backmeup/backmeup/pkg/metrics"
)

// newDatabaseEnv wires the database routes over a SQLite connection. The
// catalog queries need a live MySQL server, so these tests cover the
// validation and authorization layers in front of them.
func newDatabaseEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	logger := zap.NewNop()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	m := metrics.New(config.MetricsConfig{Namespace: "test"})
	h := NewDatabaseHandler(dbadmin.New(gdb, logger), perm.NewChecker(env.db, logger), m, logger)

	authed := env.router.Group("/api", middleware.JWTAuthMiddleware(testJWT, env.tokens))
	authed.POST("/databases", h.Create)
	authed.DELETE("/databases/:database", h.Drop)
	authed.POST("/databases/:database/tables", h.CreateTable)
	authed.DELETE("/databases/:database/tables/:table", h.DropTable)

	return env
}

func TestDatabaseHandler_CreateIsAdminOnly(t *testing.T) {
	env := newDatabaseEnv(t)
	u := addUser(t, env.db, "bob", "plain-password1", database.RoleUser)

	// Grants never unlock database creation, only the admin role does.
	env.db.grants = append(env.db.grants, &database.PermissionGrant{Username: "bob", DatabaseName: "fresh", PermissionType: "CREATE"})

	w := doJSON(env.router, "POST", "/api/databases", bearer(t, u), jsonBody(t, dto.CreateDatabaseRequest{Name: "fresh"}))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDatabaseHandler_RejectsBadNames(t *testing.T) {
	env := newDatabaseEnv(t)
	admin := addUser(t, env.db, "root", "admin-password1", database.RoleAdmin)

	w := doJSON(env.router, "POST", "/api/databases", bearer(t, admin), jsonBody(t, dto.CreateDatabaseRequest{Name: "bad name;--"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(env.router, "POST", "/api/databases/sales/tables", bearer(t, admin), jsonBody(t, dto.CreateTableRequest{Name: "orders; DROP"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDatabaseHandler_CreateTableRejectsInjectedColumns(t *testing.T) {
	env := newDatabaseEnv(t)
	u := addUser(t, env.db, "bob", "plain-password1", database.RoleUser)
	env.db.grants = append(env.db.grants, &database.PermissionGrant{Username: "bob", DatabaseName: "sales", PermissionType: "CREATE"})

	// A CREATE grant on one database must not let the column definition
	// close the CREATE TABLE parenthesis and read other schemas.
	for _, columns := range []string{
		"id INT) AS SELECT user, authentication_string FROM mysql.user -- (",
		"id INT); DROP DATABASE mysql",
		"id INT, `x` INT",
	} {
		body := jsonBody(t, dto.CreateTableRequest{Name: "leak", Columns: columns})
		w := doJSON(env.router, "POST", "/api/databases/sales/tables", bearer(t, u), body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "columns %q must be rejected", columns)
	}
}

func TestDatabaseHandler_ResponseFromInfo(t *testing.T) {
	info := dbadmin.DatabaseInfo{Name: "sales", Tables: 4, SizeMB: 1.25, Status: "Healthy"}
	resp := dto.DatabaseResponse{
		Name:   info.Name,
		Tables: info.Tables,
		SizeMB: info.SizeMB,
		Status: info.Status,
	}

	b, err := json.Marshal(resp)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"name":"sales","tables":4,"sizeMb":1.25,"status":"Healthy"}`, string(b))
}

func TestDatabaseHandler_DropSystemDatabaseRefused(t *testing.T) {
	env := newDatabaseEnv(t)
	admin := addUser(t, env.db, "root", "admin-password1", database.RoleAdmin)

	for _, name := range []string{"mysql", "information_schema", "performance_schema", "backmeup_system"} {
		w := doJSON(env.router, "DELETE", "/api/databases/"+name, bearer(t, admin), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "database %q must be protected", name)
	}
}

func TestDatabaseHandler_DropNeedsGrant(t *testing.T) {
	env := newDatabaseEnv(t)
	u := addUser(t, env.db, "bob", "plain-password1", database.RoleUser)

	w := doJSON(env.router, "DELETE", "/api/databases/sales", bearer(t, u), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An UPDATE grant is the wrong permission for dropping.
	env.db.grants = append(env.db.grants, &database.PermissionGrant{Username: "bob", DatabaseName: "sales", PermissionType: "UPDATE"})
	w = doJSON(env.router, "DELETE", "/api/databases/sales", bearer(t, u), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(env.router, "DELETE", "/api/databases/sales/tables/orders", bearer(t, u), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
