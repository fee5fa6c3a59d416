package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/backmeup/backmeup/internal/apiserver/database"
	"github.com/backmeup/backmeup/internal/backup"
	"github.com/backmeup/backmeup/internal/common/dto"
	"github.com/backmeup/backmeup/internal/common/errorx"
	"github.com/backmeup/backmeup/internal/dbadmin"
	"github.com/backmeup/backmeup/pkg/utils"
)

// DashboardHandler serves the headline statistics endpoint.
type DashboardHandler struct {
	db     database.Database
	admin  *dbadmin.Admin
	inv    *backup.Inventory
	errh   *errorx.ErrorHandler
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(db database.Database, admin *dbadmin.Admin, inv *backup.Inventory, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		db:     db,
		admin:  admin,
		inv:    inv,
		errh:   errorx.NewErrorHandler(logger),
		logger: logger.Named("handler.dashboard"),
		now:    time.Now,
	}
}

// Stats aggregates the dashboard counters. Partial failures degrade the
// affected counter instead of failing the whole response.
func (h *DashboardHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	stats := dto.DashboardStats{LastBackup: "Never", StorageUsed: backup.FormatSize(0)}

	if names, err := h.admin.ListDatabases(ctx); err == nil {
		stats.Databases = len(names)
	} else {
		h.logger.Warn("failed to count databases", zap.Error(err))
	}

	if version, err := h.admin.ServerVersion(ctx); err == nil {
		stats.ServerVersion = version
	}

	if users, err := h.db.ListUsers(ctx); err == nil {
		stats.Users = int64(len(users))
	} else {
		h.logger.Warn("failed to count users", zap.Error(err))
	}

	artifacts, err := h.inv.List()
	if err != nil {
		h.errh.Handle(c, errorx.ErrInternal("failed to scan backup directory").WithCause(err))
		return
	}
	stats.Backups = len(artifacts)
	var total int64
	for _, a := range artifacts {
		total += a.SizeBytes
	}
	stats.StorageUsed = backup.FormatSize(total)
	if len(artifacts) > 0 {
		// List is sorted newest first.
		stats.LastBackup = utils.RelativeTime(artifacts[0].ModTime, h.now())
	}

	c.JSON(http.StatusOK, stats)
}
