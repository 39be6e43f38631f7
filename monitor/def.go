package monitor

import (
	"math"
	"strconv"
	"sync"
	"time"

	"TFLiteExport/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

var sampleInterval = 500 * time.Millisecond

// Monitor collects the metrics of a single export run. It implements
// iface.ProcessObserver so the exporter's child process gets sampled while
// it runs.
type Monitor struct {
	registry      *prometheus.Registry
	duration      prometheus.Gauge
	artifactBytes prometheus.Gauge
	success       prometheus.Gauge
	memUsage      prometheus.Gauge
	cpuUsage      prometheus.Gauge

	mu      sync.Mutex
	proc    *process.Process
	peakRSS uint64
	stop    chan struct{}
	done    chan struct{}
}

// New builds a registry whose gauges all carry the given labels.
func New(output string, imgSize int, int8 bool) *Monitor {
	labels := prometheus.Labels{
		"output": output,
		"imgsz":  strconv.Itoa(imgSize),
		"int8":   strconv.FormatBool(int8),
	}
	m := &Monitor{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "tflite_export_duration_seconds",
			Help:        "Wall time of the export run in seconds",
			ConstLabels: labels,
		}),
		artifactBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "tflite_export_artifact_bytes",
			Help:        "Size of the copied artifact in bytes",
			ConstLabels: labels,
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "tflite_export_success",
			Help:        "1 if the last export run succeeded, 0 otherwise",
			ConstLabels: labels,
		}),
		memUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "tflite_export_exporter_peak_memory_megabytes",
			Help:        "Peak resident memory of the exporter process in Megabytes",
			ConstLabels: labels,
		}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "tflite_export_exporter_cpu_percent",
			Help:        "CPU usage of the exporter process in percent",
			ConstLabels: labels,
		}),
	}
	m.registry.MustRegister(m.duration, m.artifactBytes, m.success, m.memUsage, m.cpuUsage)
	return m
}

// Registry 返回本次运行的独立 registry（不使用全局 DefaultRegisterer）
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// ProcessStarted 开始按 sampleInterval 采样导出进程的内存和 CPU
func (m *Monitor) ProcessStarted(pid int) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		logger.Log().Debug("cannot watch exporter process", zap.Int("pid", pid), zap.Error(err))
		return
	}
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return
	}
	m.proc = p
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stop, m.done
	m.mu.Unlock()

	m.checkProcessInfo()
	go func() {
		defer close(done)
		ticker := time.NewTicker(sampleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.checkProcessInfo()
			}
		}
	}()
}

// ProcessExited stops sampling and waits for the sampler to finish.
func (m *Monitor) ProcessExited() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// checkProcessInfo 采样一次，内存只记录峰值
func (m *Monitor) checkProcessInfo() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.proc == nil {
		return
	}
	if memInfo, err := m.proc.MemoryInfo(); err == nil && memInfo.RSS > m.peakRSS {
		m.peakRSS = memInfo.RSS
		m.memUsage.Set(float64(m.peakRSS) / 1024 / 1024)
	}
	if cpuPercent, err := m.proc.CPUPercent(); err == nil {
		m.cpuUsage.Set(math.Round(cpuPercent*100) / 100)
	}
}

// ObserveRun records the outcome of the run. artifactBytes is ignored when
// err is non-nil.
func (m *Monitor) ObserveRun(elapsed time.Duration, artifactBytes int64, err error) {
	m.duration.Set(elapsed.Seconds())
	if err != nil {
		m.success.Set(0)
		return
	}
	m.success.Set(1)
	m.artifactBytes.Set(float64(artifactBytes))
}

// WriteTextfile writes the registry in the format read by node_exporter's
// textfile collector.
func (m *Monitor) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
