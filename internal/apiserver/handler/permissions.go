package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/backmeup/backmeup/internal/apiserver/database"
	"github.com/backmeup/backmeup/internal/apiserver/middleware"
	"github.com/backmeup/backmeup/internal/common/cnst"
	"github.com/backmeup/backmeup/internal/common/dto"
	"github.com/backmeup/backmeup/internal/common/errorx"
	"github.com/backmeup/backmeup/internal/dbadmin"
	"github.com/backmeup/backmeup/internal/perm"
)

// PermissionHandler serves the admin-only grant management endpoints.
type PermissionHandler struct {
	db      database.Database
	checker *perm.Checker
	errh    *errorx.ErrorHandler
	logger  *zap.Logger
}

// NewPermissionHandler creates a new permission management handler
func NewPermissionHandler(db database.Database, checker *perm.Checker, logger *zap.Logger) *PermissionHandler {
	return &PermissionHandler{
		db:      db,
		checker: checker,
		errh:    errorx.NewErrorHandler(logger),
		logger:  logger.Named("handler.permissions"),
	}
}

// Get returns a user's effective grants, optionally filtered to one
// database via the "database" query parameter.
func (h *PermissionHandler) Get(c *gin.Context) {
	username := c.Param("username")

	user, err := h.db.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		h.errh.Handle(c, convertStoreErr(err))
		return
	}

	grants, unrestricted, err := h.checker.Grants(c.Request.Context(), username, string(user.Role), c.Query("database"))
	if err != nil {
		h.errh.Handle(c, err)
		return
	}

	resp := dto.GrantsResponse{
		Username:     username,
		Unrestricted: unrestricted,
		Grants:       make([]dto.GrantEntry, 0, len(grants)),
	}
	for db, perms := range grants {
		sort.Strings(perms)
		resp.Grants = append(resp.Grants, dto.GrantEntry{Database: db, Permissions: perms})
	}
	sort.Slice(resp.Grants, func(i, j int) bool { return resp.Grants[i].Database < resp.Grants[j].Database })

	c.JSON(http.StatusOK, resp)
}

// Replace swaps a user's whole grant set for the one in the request. An
// empty grant list revokes everything.
func (h *PermissionHandler) Replace(c *gin.Context) {
	username := c.Param("username")

	claims, ok := middleware.GetClaims(c)
	if !ok {
		h.errh.Handle(c, errorx.ErrAuthenticationFailed("unauthorized"))
		return
	}

	var req dto.ReplaceGrantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}

	if _, err := h.db.GetUserByUsername(c.Request.Context(), username); err != nil {
		h.errh.Handle(c, convertStoreErr(err))
		return
	}

	var rows []*database.PermissionGrant
	for _, entry := range req.Grants {
		if err := dbadmin.ValidateName(entry.Database); err != nil {
			h.errh.Handle(c, errorx.ErrInvalidRequest("invalid database name: "+entry.Database))
			return
		}
		for _, p := range entry.Permissions {
			p = strings.ToUpper(strings.TrimSpace(p))
			if !cnst.ValidPermissionType(p) {
				h.errh.Handle(c, errorx.ErrInvalidRequest("unknown permission type: "+p))
				return
			}
			rows = append(rows, &database.PermissionGrant{
				Username:       username,
				DatabaseName:   entry.Database,
				PermissionType: p,
				GrantedBy:      claims.Username,
			})
		}
	}

	if err := h.db.ReplaceGrants(c.Request.Context(), username, rows); err != nil {
		h.errh.Handle(c, err)
		return
	}

	h.logger.Info("grants replaced",
		zap.String("username", username),
		zap.Int("grants", len(rows)),
		zap.String("by", claims.Username))
	c.JSON(http.StatusOK, gin.H{"success": true, "grants": len(rows)})
}
