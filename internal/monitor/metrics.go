package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/turtacn/verboten/pkg/consts"
	"github.com/turtacn/verboten/pkg/logger"
)

var workerStates = []consts.WorkerState{
	consts.StateNotStarted,
	consts.StateSpawning,
	consts.StateRunning,
	consts.StateTerminating,
	consts.StateDone,
}

// Metrics implements supervisor.Observer on top of Prometheus collectors.
type Metrics struct {
	log logger.Logger

	// States is 1 for the current worker state, 0 for the others.
	States *prometheus.GaugeVec
	// ChildUp is 1 while the supervised child is alive.
	ChildUp prometheus.Gauge
	// ChildStarts counts successful spawns.
	ChildStarts prometheus.Counter
	// ChildStops counts how children went away, partitioned by outcome.
	ChildStops *prometheus.CounterVec
	// ChildCPU and ChildRSS are sampled on every healthy liveness poll.
	ChildCPU prometheus.Gauge
	ChildRSS prometheus.Gauge
	// HostReports counts status reports sent to the service manager.
	HostReports *prometheus.CounterVec

	sampled map[int]*process.Process
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, log logger.Logger) *Metrics {
	m := &Metrics{
		States: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "verboten",
			Name:      "worker_state",
			Help:      "Current supervisor worker state (1 = active).",
		}, []string{"state"}),
		ChildUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "verboten",
			Name:      "child_up",
			Help:      "Whether the supervised process is running.",
		}),
		ChildStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "verboten",
			Name:      "child_starts_total",
			Help:      "Number of successful child spawns.",
		}),
		ChildStops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verboten",
			Name:      "child_stops_total",
			Help:      "Number of child stops, partitioned by outcome.",
		}, []string{"outcome"}),
		ChildCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "verboten",
			Name:      "child_cpu_percent",
			Help:      "CPU usage of the supervised process.",
		}),
		ChildRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "verboten",
			Name:      "child_resident_memory_bytes",
			Help:      "Resident memory of the supervised process.",
		}),
		HostReports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verboten",
			Name:      "host_reports_total",
			Help:      "Status reports delivered to the service manager, partitioned by state.",
		}, []string{"state"}),
		log:     log,
		sampled: make(map[int]*process.Process),
	}

	reg.MustRegister(m.States, m.ChildUp, m.ChildStarts, m.ChildStops, m.ChildCPU, m.ChildRSS, m.HostReports)
	m.States.WithLabelValues(string(consts.StateNotStarted)).Set(1)
	return m
}

func (m *Metrics) WorkerState(state consts.WorkerState) {
	for _, s := range workerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.States.WithLabelValues(string(s)).Set(v)
	}
}

func (m *Metrics) ChildStarted(pid int) {
	m.ChildStarts.Inc()
	m.ChildUp.Set(1)
	m.log.Debug("monitoring child", "pid", pid)
}

// ChildAlive samples the child's resource usage. Sampling errors are only
// logged; a child that vanished is picked up by the next liveness poll.
func (m *Metrics) ChildAlive(pid int) {
	p, ok := m.sampled[pid]
	if !ok {
		var err error
		if p, err = process.NewProcess(int32(pid)); err != nil {
			m.log.Debug("unable to sample child", "pid", pid, "err", err)
			return
		}
		m.sampled[pid] = p
	}

	if cpu, err := p.CPUPercent(); err == nil {
		m.ChildCPU.Set(cpu)
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		m.ChildRSS.Set(float64(mem.RSS))
	}
}

func (m *Metrics) ChildStopped(outcome consts.StopOutcome) {
	m.ChildStops.WithLabelValues(string(outcome)).Inc()
	m.ChildUp.Set(0)
	m.ChildCPU.Set(0)
	m.ChildRSS.Set(0)
	clear(m.sampled)
}

// ObserveReport counts one host status report.
func (m *Metrics) ObserveReport(state string) {
	m.HostReports.WithLabelValues(state).Inc()
}

// Personal.AI order the ending
