package monitor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	iface "TFLiteExport/interface"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ iface.ProcessObserver = (*Monitor)(nil)

func TestObserveRun(t *testing.T) {
	m := New("best.tflite", 640, false)

	m.ObserveRun(1500*time.Millisecond, 2048, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.success))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.duration))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.artifactBytes))

	m2 := New("best.tflite", 640, false)
	m2.ObserveRun(time.Second, 99, errors.New("weights not found"))
	assert.Equal(t, 0.0, testutil.ToFloat64(m2.success))
	assert.Equal(t, 0.0, testutil.ToFloat64(m2.artifactBytes))
}

func TestSampling_OwnProcess(t *testing.T) {
	m := New("best.tflite", 320, true)
	m.ProcessStarted(os.Getpid())
	m.ProcessExited()
	m.ProcessExited()

	assert.Greater(t, testutil.ToFloat64(m.memUsage), 0.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.cpuUsage), 0.0)
}

func TestProcessExited_WithoutStart(t *testing.T) {
	m := New("best.tflite", 640, false)
	assert.NotPanics(t, m.ProcessExited)
}

func TestWriteTextfile(t *testing.T) {
	m := New("best.tflite", 640, true)
	m.ObserveRun(2*time.Second, 10, nil)

	path := filepath.Join(t.TempDir(), "tflite_export.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `tflite_export_success{imgsz="640",int8="true",output="best.tflite"} 1`)
	assert.Contains(t, text, `tflite_export_duration_seconds{imgsz="640",int8="true",output="best.tflite"} 2`)
	assert.Contains(t, text, "# HELP tflite_export_artifact_bytes")

	count, err := testutil.GatherAndCount(m.Registry())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
