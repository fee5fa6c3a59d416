package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/backmeup/backmeup/internal/apiserver/database"
	"github.com/backmeup/backmeup/internal/apiserver/middleware"
	"github.com/backmeup/backmeup/internal/auth/jwt"
	"github.com/backmeup/backmeup/internal/auth/storage"
	"github.com/backmeup/backmeup/internal/common/dto"
	"github.com/backmeup/backmeup/internal/common/errorx"
)

// AuthHandler serves login, registration and session management.
type AuthHandler struct {
	db         database.Database
	jwtService *jwt.Service
	tokens     storage.Store
	errh       *errorx.ErrorHandler
	logger     *zap.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(db database.Database, jwtService *jwt.Service, tokens storage.Store, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		db:         db,
		jwtService: jwtService,
		tokens:     tokens,
		errh:       errorx.NewErrorHandler(logger),
		logger:     logger.Named("handler.auth"),
	}
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}

	// Get user from database
	user, err := h.db.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		// Missing and inactive users get the same answer as a bad password.
		h.errh.Handle(c, errorx.ErrAuthenticationFailed("invalid username or password"))
		return
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		h.errh.Handle(c, errorx.ErrAuthenticationFailed("invalid username or password"))
		return
	}

	if err := h.db.TouchLastLogin(c.Request.Context(), user.Username); err != nil {
		h.logger.Warn("failed to record last login", zap.String("username", user.Username), zap.Error(err))
	}

	// Generate JWT token
	token, err := h.jwtService.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		h.errh.Handle(c, errorx.ErrInternal("failed to generate token").WithCause(err))
		return
	}

	h.logger.Info("user logged in", zap.String("username", user.Username))
	c.JSON(http.StatusOK, dto.LoginResponse{
		Token: token,
		User: dto.UserInfo{
			ID:       user.ID,
			Username: user.Username,
			Role:     string(user.Role),
		},
	})
}

// Register handles account creation. New accounts always get the user
// role; only an admin can promote them afterwards.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}

	exists, err := h.db.UserExists(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		h.errh.Handle(c, err)
		return
	}
	if exists {
		h.errh.Handle(c, errorx.ErrConflict("username or email already taken"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.errh.Handle(c, errorx.ErrInternal("failed to hash password").WithCause(err))
		return
	}

	user := &database.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		FullName: req.FullName,
		Role:     database.RoleUser,
		IsActive: true,
	}
	if err := h.db.CreateUser(c.Request.Context(), user); err != nil {
		h.errh.Handle(c, err)
		return
	}

	h.logger.Info("user registered", zap.String("username", user.Username))
	c.JSON(http.StatusCreated, dto.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})
}

// Logout revokes the current token for the remainder of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		h.errh.Handle(c, errorx.ErrAuthenticationFailed("unauthorized"))
		return
	}
	token, ok := middleware.GetToken(c)
	if !ok {
		h.errh.Handle(c, errorx.ErrAuthenticationFailed("unauthorized"))
		return
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	if err := h.tokens.Revoke(c.Request.Context(), token, ttl); err != nil {
		h.errh.Handle(c, errorx.ErrInternal("failed to revoke token").WithCause(err))
		return
	}

	h.logger.Info("user logged out", zap.String("username", claims.Username))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ChangePassword handles password change requests
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}

	claims, ok := middleware.GetClaims(c)
	if !ok {
		h.errh.Handle(c, errorx.ErrAuthenticationFailed("unauthorized"))
		return
	}

	user, err := h.db.GetUserByUsername(c.Request.Context(), claims.Username)
	if err != nil {
		h.errh.Handle(c, convertStoreErr(err))
		return
	}

	// Compare the old password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		h.errh.Handle(c, errorx.ErrAuthenticationFailed("invalid old password"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.errh.Handle(c, errorx.ErrInternal("failed to hash password").WithCause(err))
		return
	}

	user.Password = string(hashed)
	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		h.errh.Handle(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ChangePasswordResponse{Success: true})
}
