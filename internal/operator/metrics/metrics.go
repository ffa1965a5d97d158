package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	namespace = "irs_avs"
	subsystem = "operator"
)

// Metrics holds the operator's collectors. All of them are registered on the
// registry passed to New.
type Metrics struct {
	startTime time.Time

	UptimeSeconds      prometheus.Gauge
	MemoryUsageBytes   prometheus.Gauge
	CPUUsagePercent    prometheus.Gauge
	GoroutinesActive   prometheus.Gauge
	TasksReceived      *prometheus.CounterVec
	TaskOutcomes       *prometheus.CounterVec
	TaskDuration       *prometheus.HistogramVec
	QueueDepth         prometheus.Gauge
	DroppedEvents      prometheus.Counter
	ListenerReconnects prometheus.Counter
	SettlementScans    *prometheus.CounterVec
	SettlementTasks    prometheus.Counter
	DueSwaps           prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		startTime: time.Now(),

		UptimeSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "uptime_seconds",
			Help:      "Time passed since the operator started in seconds",
		}),
		MemoryUsageBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "memory_usage_bytes",
			Help:      "Host memory in use",
		}),
		CPUUsagePercent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cpu_usage_percent",
			Help:      "Host CPU usage",
		}),
		GoroutinesActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "goroutines_active",
			Help:      "Goroutines currently running",
		}),
		TasksReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_received_total",
			Help:      "NewTaskCreated events received",
		}, []string{"kind"}),
		TaskOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "task_outcomes_total",
			Help:      "Processed tasks by kind and outcome",
		}, []string{"kind", "outcome"}),
		TaskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "task_duration_seconds",
			Help:      "Time from dequeue to outcome",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_depth",
			Help:      "Task events waiting for the dispatcher",
		}),
		DroppedEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dropped_events_total",
			Help:      "Task events skipped because they were already processed",
		}),
		ListenerReconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "listener_reconnects_total",
			Help:      "Event subscription reconnects",
		}),
		SettlementScans: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "settlement_scans_total",
			Help:      "Settlement scans by result",
		}, []string{"result"}),
		SettlementTasks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "settlement_tasks_created_total",
			Help:      "Settlement tasks created by the poller",
		}),
		DueSwaps: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "due_swaps",
			Help:      "Swaps found eligible for settlement in the last scan",
		}),
	}
}

// NewNoop returns metrics bound to a throwaway registry.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}

// UpdateSystemMetrics refreshes uptime and host usage gauges.
func (m *Metrics) UpdateSystemMetrics() {
	m.UptimeSeconds.Set(time.Since(m.startTime).Seconds())
	m.GoroutinesActive.Set(float64(runtime.NumGoroutine()))
	if vmStat, err := mem.VirtualMemory(); err == nil {
		m.MemoryUsageBytes.Set(float64(vmStat.Used))
	}
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		m.CPUUsagePercent.Set(cpuPercent[0])
	}
}

// StartSystemMetrics refreshes the system gauges every interval until stop
// closes.
func (m *Metrics) StartSystemMetrics(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.UpdateSystemMetrics()
			}
		}
	}()
}

// Uptime is the time since New.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
