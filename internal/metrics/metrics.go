package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mapexec/internal/config"
)

// Manager accumulates counters and writes them in the Prometheus textfile
// format. A nil Manager ignores every call.
type Manager struct {
	path string
	reg  *prometheus.Registry

	executions      *prometheus.CounterVec
	bytesUploaded   prometheus.Counter
	bytesDownloaded prometheus.Counter
	catalogLoads    *prometheus.CounterVec
	lastExecution   prometheus.Gauge
	writtenAt       prometheus.Gauge
}

func New(cfg *config.Config) *Manager {
	if cfg == nil || !cfg.Metrics.PrometheusTextfile.Enabled || cfg.Metrics.PrometheusTextfile.Path == "" {
		return nil
	}
	p := cfg.Metrics.PrometheusTextfile.Path
	_ = os.MkdirAll(filepath.Dir(p), 0o755)
	return NewAt(p)
}

// NewAt writes to path regardless of configuration.
func NewAt(path string) *Manager {
	m := &Manager{
		path: path,
		reg:  prometheus.NewRegistry(),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapexec_executions_total",
			Help: "Mapping executions by outcome.",
		}, []string{"status"}),
		bytesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapexec_bytes_uploaded_total",
			Help: "Total bytes of input documents sent.",
		}),
		bytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapexec_bytes_downloaded_total",
			Help: "Total bytes of results received.",
		}),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapexec_catalog_loads_total",
			Help: "Catalog fetches by outcome.",
		}, []string{"status"}),
		lastExecution: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mapexec_last_execution_seconds",
			Help: "Duration of the last execution request in seconds.",
		}),
		writtenAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mapexec_metrics_timestamp_seconds",
			Help: "UNIX timestamp when this file was written.",
		}),
	}
	m.reg.MustRegister(m.executions, m.bytesUploaded, m.bytesDownloaded,
		m.catalogLoads, m.lastExecution, m.writtenAt)
	// Outcomes show up as 0 before they first happen.
	for _, s := range []string{"succeeded", "failed", "rejected"} {
		m.executions.WithLabelValues(s)
	}
	m.catalogLoads.WithLabelValues("ok")
	m.catalogLoads.WithLabelValues("error")
	return m
}

func (m *Manager) IncExecution(status string) {
	if m == nil {
		return
	}
	switch status {
	case "succeeded", "rejected":
	default:
		status = "failed"
	}
	m.executions.WithLabelValues(status).Inc()
}

func (m *Manager) AddBytesUploaded(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesUploaded.Add(float64(n))
}

func (m *Manager) AddBytesDownloaded(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesDownloaded.Add(float64(n))
}

func (m *Manager) IncCatalogLoad(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.catalogLoads.WithLabelValues(status).Inc()
}

func (m *Manager) ObserveExecutionSeconds(sec float64) {
	if m == nil {
		return
	}
	m.lastExecution.Set(sec)
}

// Write replaces the textfile atomically.
func (m *Manager) Write() error {
	if m == nil {
		return nil
	}
	m.writtenAt.Set(float64(time.Now().Unix()))
	return prometheus.WriteToTextfile(m.path, m.reg)
}
