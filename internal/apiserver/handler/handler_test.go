package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/backmeup/backmeup/internal/apiserver/database"
	"github.com/backmeup/backmeup/internal/apiserver/middleware"
	jsvc "github.com/backmeup/backmeup/internal/auth/jwt"
	"github.com/backmeup/backmeup/internal/auth/storage"
	"github.com/backmeup/backmeup/internal/common/config"
	"github.com/backmeup/backmeup/internal/perm"
)

// fakeDB is an in-memory system store for handler tests.
type fakeDB struct {
	users  map[string]*database.User
	grants []*database.PermissionGrant
	nextID uint
}

func newFakeDB() *fakeDB {
	return &fakeDB{users: make(map[string]*database.User), nextID: 1}
}

func (m *fakeDB) Close() error { return nil }

func (m *fakeDB) CreateUser(_ context.Context, u *database.User) error {
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now()
	m.users[u.Username] = u
	return nil
}

func (m *fakeDB) GetUserByUsername(_ context.Context, username string) (*database.User, error) {
	u, ok := m.users[username]
	if !ok || !u.IsActive {
		return nil, database.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *fakeDB) UserExists(_ context.Context, username, email string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *fakeDB) ListUsers(_ context.Context) ([]*database.User, error) {
	var out []*database.User
	for _, u := range m.users {
		if u.IsActive {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *fakeDB) UpdateUser(_ context.Context, u *database.User) error {
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *fakeDB) DeactivateUser(_ context.Context, username string) error {
	if u, ok := m.users[username]; ok {
		u.IsActive = false
	}
	return nil
}

func (m *fakeDB) TouchLastLogin(_ context.Context, username string) error {
	if u, ok := m.users[username]; ok {
		now := time.Now()
		u.LastLogin = &now
	}
	return nil
}

func (m *fakeDB) HasGrant(_ context.Context, username, db, permissionType string) (bool, error) {
	for _, g := range m.grants {
		if g.Username == username && g.DatabaseName == db && g.PermissionType == permissionType {
			return true, nil
		}
	}
	return false, nil
}

func (m *fakeDB) ListGrants(_ context.Context, username, db string) ([]*database.PermissionGrant, error) {
	var out []*database.PermissionGrant
	for _, g := range m.grants {
		if g.Username == username && (db == "" || g.DatabaseName == db) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *fakeDB) ReplaceGrants(_ context.Context, username string, grants []*database.PermissionGrant) error {
	var kept []*database.PermissionGrant
	for _, g := range m.grants {
		if g.Username != username {
			kept = append(kept, g)
		}
	}
	m.grants = append(kept, grants...)
	return nil
}

var testJWT = func() *jsvc.Service {
	s, _ := jsvc.NewService(config.JWTConfig{SecretKey: "0123456789abcdef0123456789abcdef", Duration: time.Hour})
	return s
}()

// addUser seeds an active user with a bcrypt-hashed password.
func addUser(t *testing.T, db *fakeDB, username, password string, role database.UserRole) *database.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	u := &database.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
		Role:     role,
		IsActive: true,
	}
	assert.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func bearer(t *testing.T, u *database.User) string {
	t.Helper()
	tok, err := testJWT.GenerateToken(u.ID, u.Username, string(u.Role))
	assert.NoError(t, err)
	return "Bearer " + tok
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	assert.NoError(t, err)
	return bytes.NewReader(b)
}

func doJSON(r *gin.Engine, method, path, auth string, body *bytes.Reader) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// testEnv wires the handlers the way the server does, minus the parts
// that need a live MySQL server.
type testEnv struct {
	db      *fakeDB
	tokens  storage.Store
	checker *perm.Checker
	router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	db := newFakeDB()
	tokens := storage.NewMemoryStore()
	checker := perm.NewChecker(db, logger)

	auth := NewAuthHandler(db, testJWT, tokens, logger)
	users := NewUserHandler(db, logger)
	perms := NewPermissionHandler(db, checker, logger)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/login", auth.Login)
	api.POST("/auth/register", auth.Register)

	authed := api.Group("", middleware.JWTAuthMiddleware(testJWT, tokens))
	authed.POST("/auth/logout", auth.Logout)
	authed.POST("/auth/change-password", auth.ChangePassword)

	admin := authed.Group("", middleware.AdminOnlyMiddleware())
	admin.GET("/users", users.List)
	admin.PUT("/users/:username", users.Update)
	admin.DELETE("/users/:username", users.Delete)
	admin.GET("/users/:username/permissions", perms.Get)
	admin.PUT("/users/:username/permissions", perms.Replace)

	return &testEnv{db: db, tokens: tokens, checker: checker, router: r}
}
