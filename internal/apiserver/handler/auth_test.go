package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/backmeup/backmeup/internal/apiserver/database"
	"github.com/backmeup/backmeup/internal/common/dto"
)

func TestAuthHandler_LoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	addUser(t, env.db, "alice", "s3cret-password", database.RoleAdmin)

	w := doJSON(env.router, "POST", "/api/auth/login", "", jsonBody(t, dto.LoginRequest{Username: "alice", Password: "s3cret-password"}))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.LoginResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "admin", resp.User.Role)

	// Login records the time.
	assert.NotNil(t, env.db.users["alice"].LastLogin)
}

func TestAuthHandler_LoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	addUser(t, env.db, "alice", "s3cret-password", database.RoleUser)

	w := doJSON(env.router, "POST", "/api/auth/login", "", jsonBody(t, dto.LoginRequest{Username: "alice", Password: "nope"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LoginUnknownAndInactiveLookAlike(t *testing.T) {
	env := newTestEnv(t)
	u := addUser(t, env.db, "gone", "s3cret-password", database.RoleUser)
	u.IsActive = false

	wUnknown := doJSON(env.router, "POST", "/api/auth/login", "", jsonBody(t, dto.LoginRequest{Username: "nobody", Password: "x"}))
	wInactive := doJSON(env.router, "POST", "/api/auth/login", "", jsonBody(t, dto.LoginRequest{Username: "gone", Password: "s3cret-password"}))

	assert.Equal(t, http.StatusUnauthorized, wUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wInactive.Code)
}

func TestAuthHandler_RegisterAlwaysGetsUserRole(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(env.router, "POST", "/api/auth/register", "", jsonBody(t, map[string]string{
		"username": "mallory",
		"email":    "mallory@example.com",
		"password": "longenough123",
		"role":     "superadmin", // must be ignored
	}))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, database.RoleUser, env.db.users["mallory"].Role)
	assert.NotEqual(t, "longenough123", env.db.users["mallory"].Password, "password must be stored hashed")
}

func TestAuthHandler_RegisterConflict(t *testing.T) {
	env := newTestEnv(t)
	addUser(t, env.db, "alice", "s3cret-password", database.RoleUser)

	w := doJSON(env.router, "POST", "/api/auth/register", "", jsonBody(t, dto.RegisterRequest{
		Username: "alice", Email: "fresh@example.com", Password: "longenough123",
	}))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_LogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	u := addUser(t, env.db, "alice", "s3cret-password", database.RoleUser)
	auth := bearer(t, u)

	w := doJSON(env.router, "POST", "/api/auth/logout", auth, jsonBody(t, struct{}{}))
	assert.Equal(t, http.StatusOK, w.Code)

	// The same token no longer passes the middleware.
	w = doJSON(env.router, "POST", "/api/auth/logout", auth, jsonBody(t, struct{}{}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	u := addUser(t, env.db, "alice", "old-password-1", database.RoleUser)

	w := doJSON(env.router, "POST", "/api/auth/change-password", bearer(t, u), jsonBody(t, dto.ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "new-password-1",
	}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(env.router, "POST", "/api/auth/change-password", bearer(t, u), jsonBody(t, dto.ChangePasswordRequest{
		OldPassword: "old-password-1", NewPassword: "new-password-1",
	}))
	assert.Equal(t, http.StatusOK, w.Code)

	// Old password stops working, new one logs in.
	w = doJSON(env.router, "POST", "/api/auth/login", "", jsonBody(t, dto.LoginRequest{Username: "alice", Password: "old-password-1"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(env.router, "POST", "/api/auth/login", "", jsonBody(t, dto.LoginRequest{Username: "alice", Password: "new-password-1"}))
	assert.Equal(t, http.StatusOK, w.Code)
}
