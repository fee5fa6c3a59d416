package errorx

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorHandler turns errors into JSON responses at the operation boundary.
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Handle converts any error to an APIError and writes the HTTP response.
func (h *ErrorHandler) Handle(c *gin.Context, err error) {
	if err == nil {
		return
	}

	apiErr := Convert(err)
	apiErr.TraceID = uuid.New().String()
	apiErr.Timestamp = time.Now().UTC().Format(time.RFC3339)

	fields := []zap.Field{
		zap.String("code", apiErr.Code),
		zap.String("category", string(apiErr.Category)),
		zap.String("trace_id", apiErr.TraceID),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	}
	if apiErr.Category == CategoryInternal || apiErr.Category == CategoryConnection {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request failed", fields...)
	}

	c.JSON(apiErr.HTTPStatus, gin.H{"error": apiErr})
}

// Convert maps any error to an APIError without losing the cause.
func Convert(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return ErrInternal("an unexpected error occurred").WithCause(err)
}
