package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redikv"

// Expiry modes, used as the "mode" label of KeysExpired.
const (
	ExpiryPassive = "passive"
	ExpiryActive  = "active"
)

// Rejection reasons, used as the "reason" label of ConnectionsRejected.
const (
	RejectPermitTimeout = "permit_timeout"
	RejectShuttingDown  = "shutting_down"
)

// Registry holds the server metrics and the prometheus registry they are
// registered with.
type Registry struct {
	registry *prometheus.Registry

	CommandsTotal       *prometheus.CounterVec
	CommandErrors       *prometheus.CounterVec
	CommandDuration     prometheus.Histogram
	KeysExpired         *prometheus.CounterVec
	SweepDuration       prometheus.Histogram
	ConnectionsActive   prometheus.Gauge
	ConnectionsAccepted prometheus.Counter
	ConnectionsRejected *prometheus.CounterVec
}

// NewRegistry creates a registry with every redikv metric plus the Go runtime
// and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands processed, by command name.",
		}, []string{"command"}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Requests that failed, by error code.",
		}, []string{"code"}),
		CommandDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent executing one request.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}),
		KeysExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "keys",
			Name:      "expired_total",
			Help:      "Keys removed because their TTL elapsed, by expiry mode.",
		}, []string{"mode"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "duration_seconds",
			Help:      "Duration of one active expiry pass.",
			Buckets:   prometheus.ExponentialBuckets(.00001, 4, 10),
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "active",
			Help:      "Connections currently holding a permit.",
		}),
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "accepted_total",
			Help:      "Connections admitted since start.",
		}),
		ConnectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "rejected_total",
			Help:      "Connections dropped before being served, by reason.",
		}, []string{"reason"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.CommandsTotal,
		r.CommandErrors,
		r.CommandDuration,
		r.KeysExpired,
		r.SweepDuration,
		r.ConnectionsActive,
		r.ConnectionsAccepted,
		r.ConnectionsRejected,
	)

	return r
}

// Register adds extra collectors, such as a StoreCollector.
func (r *Registry) Register(cs ...prometheus.Collector) error {
	if r == nil {
		return nil
	}
	for _, c := range cs {
		if err := r.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}

// CommandProcessed counts one executed command.
func (r *Registry) CommandProcessed(command string, seconds float64) {
	if r == nil {
		return
	}
	r.CommandsTotal.WithLabelValues(command).Inc()
	r.CommandDuration.Observe(seconds)
}

// CommandFailed counts one failed request by error code.
func (r *Registry) CommandFailed(code string) {
	if r == nil {
		return
	}
	r.CommandErrors.WithLabelValues(code).Inc()
}

// Expired counts n keys removed in the given mode.
func (r *Registry) Expired(mode string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.KeysExpired.WithLabelValues(mode).Add(float64(n))
}

// SweepObserved records the duration of one sweep.
func (r *Registry) SweepObserved(seconds float64) {
	if r == nil {
		return
	}
	r.SweepDuration.Observe(seconds)
}

// ConnOpened records an admitted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.ConnectionsAccepted.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records the end of an admitted connection.
func (r *Registry) ConnClosed() {
	if r == nil {
		return
	}
	r.ConnectionsActive.Dec()
}

// ConnRejected records a connection dropped for reason.
func (r *Registry) ConnRejected(reason string) {
	if r == nil {
		return
	}
	r.ConnectionsRejected.WithLabelValues(reason).Inc()
}
