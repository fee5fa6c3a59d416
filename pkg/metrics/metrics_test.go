package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/backmeup/backmeup/internal/common/config"
)

func TestMetrics_HTTPMiddlewareAndHandler(t *testing.T) {
	m := New(config.MetricsConfig{Namespace: "backmeup"})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	m.BackupStart("sales")
	m.BackupDone("sales", time.Now(), nil)
	m.RestoreDone("sales", time.Now(), errors.New("boom"))
	m.PermissionDenied("drop-database")
	m.SetArtifactCount(3)

	w = httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "backmeup_http_requests_total")
	assert.Contains(t, body, `backmeup_backup_total{database="sales",status="success"} 1`)
	assert.Contains(t, body, `backmeup_restore_total{database="sales",status="error"} 1`)
	assert.Contains(t, body, `backmeup_permission_denials_total{action="drop-database"} 1`)
	assert.Contains(t, body, "backmeup_backup_artifacts_on_disk 3")
}
