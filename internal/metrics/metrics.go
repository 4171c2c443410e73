// Package metrics exposes supervisor measurements as Prometheus metrics on a
// private registry, optionally served on a loopback endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "findmyjob"

// stateValues maps supervisor states to the supervisor_state gauge value.
var stateValues = map[string]float64{
	"idle":             0,
	"deciding":         1,
	"reusing_external": 2,
	"port_conflict":    3,
	"launching":        4,
	"running":          5,
	"shutting_down":    6,
	"stopped":          7,
}

// Collector records supervisor activity. It satisfies sidecar.Observer.
type Collector struct {
	probes    *prometheus.CounterVec
	signals   *prometheus.CounterVec
	lines     *prometheus.CounterVec
	launches  *prometheus.CounterVec
	state     prometheus.Gauge
	readiness prometheus.Histogram

	registry *prometheus.Registry
}

// NewCollector registers all metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.probes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Health probes issued against the backend, by result",
		},
		[]string{"result"},
	)
	c.signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Signals emitted to the host, by name",
		},
		[]string{"name"},
	)
	c.lines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_lines_total",
			Help:      "Backend output lines drained, by stream",
		},
		[]string{"stream"},
	)
	c.launches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "launches_total",
			Help:      "Backend launch attempts, by result",
		},
		[]string{"result"},
	)
	c.state = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "supervisor_state",
			Help:      "Supervisor state: 0 idle, 1 deciding, 2 reusing_external, 3 port_conflict, 4 launching, 5 running, 6 shutting_down, 7 stopped",
		},
	)
	c.readiness = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "readiness_seconds",
			Help:      "Time from launch until the backend answered its health check",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 45},
		},
	)

	c.registry.MustRegister(c.probes, c.signals, c.lines, c.launches, c.state, c.readiness)
	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) ObserveProbe(ok bool) {
	c.probes.WithLabelValues(result(ok)).Inc()
}

func (c *Collector) ObserveSignal(name string) {
	c.signals.WithLabelValues(name).Inc()
}

func (c *Collector) ObserveLine(stream string) {
	c.lines.WithLabelValues(stream).Inc()
}

func (c *Collector) ObserveState(state string) {
	if v, ok := stateValues[state]; ok {
		c.state.Set(v)
	}
}

func (c *Collector) ObserveReadiness(d time.Duration) {
	c.readiness.Observe(d.Seconds())
}

func (c *Collector) ObserveLaunch(ok bool) {
	c.launches.WithLabelValues(result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
