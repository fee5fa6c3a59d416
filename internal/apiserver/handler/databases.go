package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/backmeup/backmeup/internal/apiserver/middleware"
	"github.com/backmeup/backmeup/internal/common/cnst"
	"github.com/backmeup/backmeup/internal/common/dto"
	"github.com/backmeup/backmeup/internal/common/errorx"
	"github.com/backmeup/backmeup/internal/dbadmin"
	"github.com/backmeup/backmeup/internal/perm"
	"github.com/backmeup/backmeup/pkg/metrics"
)

// DatabaseHandler serves the managed-server database endpoints.
type DatabaseHandler struct {
	admin   *dbadmin.Admin
	checker *perm.Checker
	metrics *metrics.Metrics
	errh    *errorx.ErrorHandler
	logger  *zap.Logger
}

// NewDatabaseHandler creates a new database management handler
func NewDatabaseHandler(admin *dbadmin.Admin, checker *perm.Checker, m *metrics.Metrics, logger *zap.Logger) *DatabaseHandler {
	return &DatabaseHandler{
		admin:   admin,
		checker: checker,
		metrics: m,
		errh:    errorx.NewErrorHandler(logger),
		logger:  logger.Named("handler.databases"),
	}
}

// authorize runs the permission check for one action and writes the 403
// itself when it fails. Checks query grant rows fresh on every call.
func (h *DatabaseHandler) authorize(c *gin.Context, databaseName string, action cnst.Action) bool {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		h.errh.Handle(c, errorx.ErrAuthenticationFailed("unauthorized"))
		return false
	}
	if !h.checker.CanPerform(c.Request.Context(), claims.Username, claims.Role, databaseName, action) {
		h.metrics.PermissionDenied(string(action))
		h.errh.Handle(c, errorx.ErrPermissionDenied(claims.Username, string(action), databaseName))
		return false
	}
	return true
}

// List returns every user database with table count and size.
func (h *DatabaseHandler) List(c *gin.Context) {
	names, err := h.admin.ListDatabases(c.Request.Context())
	if err != nil {
		h.errh.Handle(c, errorx.ErrConnection("failed to list databases").WithCause(err))
		return
	}

	out := make([]dto.DatabaseResponse, 0, len(names))
	for _, name := range names {
		info, err := h.admin.DatabaseInfo(c.Request.Context(), name)
		if err != nil {
			h.logger.Warn("failed to stat database", zap.String("database", name), zap.Error(err))
			out = append(out, dto.DatabaseResponse{Name: name, Status: "Unknown"})
			continue
		}
		out = append(out, dto.DatabaseResponse{
			Name:   name,
			Tables: info.Tables,
			SizeMB: info.SizeMB,
			Status: info.Status,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Get returns table count and size for one database.
func (h *DatabaseHandler) Get(c *gin.Context) {
	name := c.Param("database")
	if err := dbadmin.ValidateName(name); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}

	info, err := h.admin.DatabaseInfo(c.Request.Context(), name)
	if err != nil {
		h.errh.Handle(c, errorx.ErrConnection("failed to stat database").WithCause(err))
		return
	}
	c.JSON(http.StatusOK, dto.DatabaseResponse{
		Name:   name,
		Tables: info.Tables,
		SizeMB: info.SizeMB,
		Status: info.Status,
	})
}

// Create creates a new database on the managed server.
func (h *DatabaseHandler) Create(c *gin.Context) {
	var req dto.CreateDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}
	if err := dbadmin.ValidateName(req.Name); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}
	if !h.authorize(c, req.Name, cnst.ActionCreateDatabase) {
		return
	}

	if err := h.admin.CreateDatabase(c.Request.Context(), req.Name); err != nil {
		h.errh.Handle(c, errorx.ErrConnection("failed to create database").WithCause(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": req.Name})
}

// Drop removes a database. System schemas are never droppable, whatever
// the caller's role.
func (h *DatabaseHandler) Drop(c *gin.Context) {
	name := c.Param("database")
	if err := dbadmin.ValidateName(name); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}
	if cnst.IsSystemDatabase(name) || name == cnst.SystemSchema {
		h.errh.Handle(c, errorx.ErrInvalidRequest("cannot drop a system database"))
		return
	}
	if !h.authorize(c, name, cnst.ActionDropDatabase) {
		return
	}

	if err := h.admin.DropDatabase(c.Request.Context(), name); err != nil {
		h.errh.Handle(c, errorx.ErrConnection("failed to drop database").WithCause(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListTables returns the tables of one database.
func (h *DatabaseHandler) ListTables(c *gin.Context) {
	name := c.Param("database")
	if err := dbadmin.ValidateName(name); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}

	tables, err := h.admin.ListTables(c.Request.Context(), name)
	if err != nil {
		h.errh.Handle(c, errorx.ErrConnection("failed to list tables").WithCause(err))
		return
	}
	resp := dto.TableListResponse{Database: name, Tables: make([]string, 0, len(tables))}
	for _, t := range tables {
		resp.Tables = append(resp.Tables, t.Name)
	}
	c.JSON(http.StatusOK, resp)
}

// CreateTable creates a table in a database.
func (h *DatabaseHandler) CreateTable(c *gin.Context) {
	name := c.Param("database")
	var req dto.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}
	if err := dbadmin.ValidateName(name); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}
	if err := dbadmin.ValidateName(req.Name); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}
	if req.Columns != "" {
		if err := dbadmin.ValidateColumnDefinition(req.Columns); err != nil {
			h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
			return
		}
	}
	if !h.authorize(c, name, cnst.ActionCreateTable) {
		return
	}

	if err := h.admin.CreateTable(c.Request.Context(), name, req.Name, req.Columns); err != nil {
		h.errh.Handle(c, errorx.ErrConnection("failed to create table").WithCause(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"database": name, "table": req.Name})
}

// DropTable drops a table from a database.
func (h *DatabaseHandler) DropTable(c *gin.Context) {
	name := c.Param("database")
	table := c.Param("table")
	if err := dbadmin.ValidateName(name); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}
	if err := dbadmin.ValidateName(table); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}
	if !h.authorize(c, name, cnst.ActionDropTable) {
		return
	}

	if err := h.admin.DropTable(c.Request.Context(), name, table); err != nil {
		h.errh.Handle(c, errorx.ErrConnection("failed to drop table").WithCause(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
