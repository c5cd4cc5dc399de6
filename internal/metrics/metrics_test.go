package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapexec/internal/config"
)

func TestNewDisabled(t *testing.T) {
	assert.Nil(t, New(config.Default()))
	var m *Manager
	m.IncExecution("succeeded")
	assert.NoError(t, m.Write())
}

func TestWriteTextfile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "mapexec.prom")
	m := NewAt(p)
	m.IncExecution("succeeded")
	m.IncExecution("failed")
	m.IncExecution("rejected")
	m.IncExecution("rejected")
	m.AddBytesUploaded(100)
	m.AddBytesDownloaded(42)
	m.IncCatalogLoad(true)
	m.ObserveExecutionSeconds(1.5)
	require.NoError(t, m.Write())

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `mapexec_executions_total{status="rejected"} 2`)
	assert.Contains(t, out, "mapexec_bytes_uploaded_total 100")
	assert.Contains(t, out, "mapexec_bytes_downloaded_total 42")
	assert.Contains(t, out, `mapexec_catalog_loads_total{status="ok"} 1`)
	assert.Contains(t, out, `mapexec_catalog_loads_total{status="error"} 0`)
	assert.Contains(t, out, "mapexec_last_execution_seconds 1.5")
}

func TestUnknownStatusCountsAsFailed(t *testing.T) {
	m := NewAt(filepath.Join(t.TempDir(), "m.prom"))
	m.IncExecution("exploded")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.executions.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.executions.WithLabelValues("succeeded")))
}
