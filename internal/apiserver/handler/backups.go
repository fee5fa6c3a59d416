package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/backmeup/backmeup/internal/apiserver/middleware"
	"github.com/backmeup/backmeup/internal/backup"
	"github.com/backmeup/backmeup/internal/common/cnst"
	"github.com/backmeup/backmeup/internal/common/dto"
	"github.com/backmeup/backmeup/internal/common/errorx"
	"github.com/backmeup/backmeup/internal/dbadmin"
	"github.com/backmeup/backmeup/internal/perm"
	"github.com/backmeup/backmeup/pkg/metrics"
)

// BackupHandler serves the backup and restore endpoints.
type BackupHandler struct {
	inv     *backup.Inventory
	exec    *backup.Executor
	checker *perm.Checker
	metrics *metrics.Metrics
	errh    *errorx.ErrorHandler
	logger  *zap.Logger
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(inv *backup.Inventory, exec *backup.Executor, checker *perm.Checker, m *metrics.Metrics, logger *zap.Logger) *BackupHandler {
	return &BackupHandler{
		inv:     inv,
		exec:    exec,
		checker: checker,
		metrics: m,
		errh:    errorx.NewErrorHandler(logger),
		logger:  logger.Named("handler.backups"),
	}
}

func (h *BackupHandler) authorize(c *gin.Context, databaseName string, action cnst.Action) bool {
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

func toBackupResponse(a *backup.Artifact) dto.BackupResponse {
	return dto.BackupResponse{
		Filename:  a.Filename,
		Database:  a.SourceDatabase,
		SizeBytes: a.SizeBytes,
		Size:      a.Size,
		CreatedAt: a.Timestamp,
	}
}

// List returns every backup artifact in the backup directory, newest
// first. The directory itself is the inventory; this is a fresh scan.
func (h *BackupHandler) List(c *gin.Context) {
	artifacts, err := h.inv.List()
	if err != nil {
		h.errh.Handle(c, errorx.ErrInternal("failed to scan backup directory").WithCause(err))
		return
	}
	h.metrics.SetArtifactCount(len(artifacts))

	out := make([]dto.BackupResponse, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, toBackupResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

// Create runs a whole-database dump.
func (h *BackupHandler) Create(c *gin.Context) {
	var req dto.CreateBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}
	if !h.authorize(c, req.Database, cnst.ActionBackup) {
		return
	}

	start := time.Now()
	h.metrics.BackupStart(req.Database)
	artifact, err := h.exec.Backup(c.Request.Context(), req.Database)
	h.metrics.BackupDone(req.Database, start, err)
	if err != nil {
		h.errh.Handle(c, backupErr(err))
		return
	}

	h.logger.Info("backup created",
		zap.String("database", req.Database),
		zap.String("filename", artifact.Filename),
		zap.Int64("size_bytes", artifact.SizeBytes))
	c.JSON(http.StatusCreated, toBackupResponse(artifact))
}

// CreateTable runs a single-table dump.
func (h *BackupHandler) CreateTable(c *gin.Context) {
	var req dto.CreateTableBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errh.Handle(c, errorx.ErrInvalidRequest(err.Error()))
		return
	}
	if !h.authorize(c, req.Database, cnst.ActionBackup) {
		return
	}

	start := time.Now()
	h.metrics.BackupStart(req.Database)
	artifact, err := h.exec.BackupTable(c.Request.Context(), req.Database, req.Table)
	h.metrics.BackupDone(req.Database, start, err)
	if err != nil {
		h.errh.Handle(c, backupErr(err))
		return
	}

	h.logger.Info("table backup created",
		zap.String("database", req.Database),
		zap.String("table", req.Table),
		zap.String("filename", artifact.Filename))
	c.JSON(http.StatusCreated, toBackupResponse(artifact))
}

// Restore replays a dump into the server. The target database is inferred
// from the filename and created when missing; existing data in it is
// overwritten by whatever the dump contains.
func (h *BackupHandler) Restore(c *gin.Context) {
	filename := c.Param("filename")

	target := backup.SourceDatabase(filename)
	if !h.authorize(c, target, cnst.ActionRestore) {
		return
	}

	start := time.Now()
	databaseName, err := h.exec.Restore(c.Request.Context(), filename)
	h.metrics.RestoreDone(target, start, err)
	if err != nil {
		h.errh.Handle(c, backupErr(err))
		return
	}

	h.logger.Info("backup restored",
		zap.String("filename", filename),
		zap.String("database", databaseName))
	c.JSON(http.StatusOK, dto.RestoreResponse{Database: databaseName, Filename: filename})
}

// Delete removes a backup artifact from disk.
func (h *BackupHandler) Delete(c *gin.Context) {
	filename := c.Param("filename")

	if !h.authorize(c, backup.SourceDatabase(filename), cnst.ActionDelete) {
		return
	}

	if err := h.inv.Delete(filename); err != nil {
		if errors.Is(err, backup.ErrNotFound) {
			h.errh.Handle(c, errorx.ErrNotFound("backup "+filename))
			return
		}
		h.errh.Handle(c, errorx.ErrInternal("failed to delete backup").WithCause(err))
		return
	}

	h.logger.Info("backup deleted", zap.String("filename", filename))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// backupErr maps executor failures to API error categories. Anything not
// recognized as a client mistake is reported as a server-side failure;
// disk errors around the dump file are never the caller's fault.
func backupErr(err error) error {
	var pe *backup.ProcessError
	switch {
	case errors.As(err, &pe):
		return errorx.ErrProcess(pe.Error())
	case errors.Is(err, backup.ErrBinaryNotFound):
		return errorx.ErrProcess(err.Error())
	case errors.Is(err, backup.ErrNotFound):
		return errorx.ErrNotFound("backup")
	case errors.Is(err, backup.ErrBadFilename), errors.Is(err, dbadmin.ErrInvalidName):
		return errorx.ErrInvalidRequest(err.Error())
	default:
		return errorx.ErrInternal(err.Error())
	}
}
