package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/backmeup/backmeup/internal/common/config"
)

type Metrics struct {
	registry     *prometheus.Registry
	namespace    string
	httpReqCnt   *prometheus.CounterVec
	httpDur      *prometheus.HistogramVec
	httpInfl     *prometheus.GaugeVec
	backupCnt    *prometheus.CounterVec
	backupDur    *prometheus.HistogramVec
	backupInfl   *prometheus.GaugeVec
	restoreCnt   *prometheus.CounterVec
	restoreDur   *prometheus.HistogramVec
	permDenials  *prometheus.CounterVec
	artifactsCnt prometheus.Gauge
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	// Register standard process and Go collectors
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	// Register basic HTTP metrics
	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: cfg.Buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	backupCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "backup_total"}, []string{"database", "status"})
	backupDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "backup_duration_seconds", Buckets: cfg.Buckets}, []string{"database", "status"})
	backupInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "backup_inflight"}, []string{"database"})
	r.MustRegister(backupCnt, backupDur, backupInfl)

	restoreCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "restore_total"}, []string{"database", "status"})
	restoreDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "restore_duration_seconds", Buckets: cfg.Buckets}, []string{"database", "status"})
	r.MustRegister(restoreCnt, restoreDur)

	permDenials := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "permission_denials_total"}, []string{"action"})
	artifactsCnt := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "backup_artifacts_on_disk"})
	r.MustRegister(permDenials, artifactsCnt)

	return &Metrics{
		registry:     r,
		namespace:    ns,
		httpReqCnt:   httpReqCnt,
		httpDur:      httpDur,
		httpInfl:     httpInfl,
		backupCnt:    backupCnt,
		backupDur:    backupDur,
		backupInfl:   backupInfl,
		restoreCnt:   restoreCnt,
		restoreDur:   restoreDur,
		permDenials:  permDenials,
		artifactsCnt: artifactsCnt,
	}
}

func (m *Metrics) BackupStart(database string) {
	m.backupInfl.WithLabelValues(database).Inc()
}

func (m *Metrics) BackupDone(database string, since time.Time, err error) {
	status := statusLabel(err)
	m.backupCnt.WithLabelValues(database, status).Inc()
	m.backupDur.WithLabelValues(database, status).Observe(time.Since(since).Seconds())
	m.backupInfl.WithLabelValues(database).Dec()
}

func (m *Metrics) RestoreDone(database string, since time.Time, err error) {
	status := statusLabel(err)
	m.restoreCnt.WithLabelValues(database, status).Inc()
	m.restoreDur.WithLabelValues(database, status).Observe(time.Since(since).Seconds())
}

func (m *Metrics) PermissionDenied(action string) {
	m.permDenials.WithLabelValues(action).Inc()
}

// SetArtifactCount records the current number of backup files on disk.
func (m *Metrics) SetArtifactCount(n int) {
	m.artifactsCnt.Set(float64(n))
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := httpStatus(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func httpStatus(code int) string { return strconv.Itoa(code) }
