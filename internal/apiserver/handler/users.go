package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/backmeup/backmeup/internal/apiserver/database"
	"github.com/backmeup/backmeup/internal/apiserver/middleware"
	"github.com/backmeup/backmeup/internal/common/cnst"
	"github.com/backmeup/backmeup/internal/common/dto"
	"github.com/backmeup/backmeup/internal/common/errorx"
	"github.com/backmeup/backmeup/pkg/utils"
)

// UserHandler serves the admin-only user management endpoints.
type UserHandler struct {
	db     database.Database
	errh   *errorx.ErrorHandler
	logger *zap.Logger
	now    func() time.Time
}

// NewUserHandler creates a new user management handler
func NewUserHandler(db database.Database, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		db:     db,
		errh:   errorx.NewErrorHandler(logger),
		logger: logger.Named("handler.users"),
		now:    time.Now,
	}
}

func (h *UserHandler) toResponse(u *database.User) dto.UserResponse {
	lastLogin := "Never"
	if u.LastLogin != nil {
		lastLogin = utils.RelativeTime(*u.LastLogin, h.now())
	}
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		LastLogin: lastLogin,
		CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// List returns every active user.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.db.ListUsers(c.Request.Context())
	if err != nil {
		h.errh.Handle(c, err)
		return
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, h.toResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

// Update applies admin edits to a user record.
func (h *UserHandler) Update(c *gin.Context) {
	username := c.Param("username")

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}
	if req.Role != "" && !cnst.ValidRole(req.Role) {
		h.errh.Handle(c, errorx.ErrInvalidRequest(fmt.Sprintf("unknown role %q", req.Role)))
		return
	}

	user, err := h.db.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		h.errh.Handle(c, convertStoreErr(err))
		return
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Role != "" {
		user.Role = database.UserRole(cnst.NormalizeRole(req.Role))
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		h.errh.Handle(c, err)
		return
	}

	h.logger.Info("user updated", zap.String("username", username))
	c.JSON(http.StatusOK, h.toResponse(user))
}

// Delete soft-deletes a user. The account row stays behind so grants and
// audit history keep their reference.
func (h *UserHandler) Delete(c *gin.Context) {
	username := c.Param("username")

	claims, ok := middleware.GetClaims(c)
	if !ok {
		h.errh.Handle(c, errorx.ErrAuthenticationFailed("unauthorized"))
		return
	}
	if claims.Username == username {
		h.errh.Handle(c, errorx.ErrInvalidRequest("cannot delete your own account"))
		return
	}

	if _, err := h.db.GetUserByUsername(c.Request.Context(), username); err != nil {
		h.errh.Handle(c, convertStoreErr(err))
		return
	}
	if err := h.db.DeactivateUser(c.Request.Context(), username); err != nil {
		h.errh.Handle(c, err)
		return
	}

	h.logger.Info("user deactivated", zap.String("username", username), zap.String("by", claims.Username))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
