package resource

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports load and reclamation counters. All methods are nil-safe:
// a nil *Metrics records nothing.
type Metrics struct {
	// Requests counts handle acquisitions, labeled by type.
	Requests *prometheus.CounterVec
	// Loads counts finished loads, labeled by type and result ("loaded", "failed").
	Loads *prometheus.CounterVec
	// LoadDuration observes the time from Deferred → Pending to the terminal state.
	LoadDuration *prometheus.HistogramVec
	// Resident tracks resources currently held in buckets, labeled by type.
	Resident *prometheus.GaugeVec
	// Reclaimed counts queue outcomes, labeled by action
	// ("removed", "resurrected", "reset").
	Reclaimed *prometheus.CounterVec
	// CallbacksFired counts delivered callbacks.
	CallbacksFired prometheus.Counter
}

// NewMetrics creates the metrics and registers them with reg. If reg is nil
// the metrics are created but not registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assetgrid",
			Subsystem: "resources",
			Name:      "requests_total",
			Help:      "Total number of resource handles acquired",
		}, []string{"type"}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assetgrid",
			Subsystem: "resources",
			Name:      "loads_total",
			Help:      "Total number of finished resource loads",
		}, []string{"type", "result"}),
		LoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assetgrid",
			Subsystem: "resources",
			Name:      "load_duration_seconds",
			Help:      "Time from load request to terminal state, dependencies included",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"type"}),
		Resident: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "assetgrid",
			Subsystem: "resources",
			Name:      "resident",
			Help:      "Resources currently held by the manager",
		}, []string{"type"}),
		Reclaimed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assetgrid",
			Subsystem: "resources",
			Name:      "reclaimed_total",
			Help:      "Outcomes of pending removals and unloads",
		}, []string{"action"}),
		CallbacksFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assetgrid",
			Subsystem: "resources",
			Name:      "callbacks_fired_total",
			Help:      "Total number of load callbacks delivered",
		}),
	}

	if reg != nil {
		m.Requests = register(reg, m.Requests)
		m.Loads = register(reg, m.Loads)
		m.LoadDuration = register(reg, m.LoadDuration)
		m.Resident = register(reg, m.Resident)
		m.Reclaimed = register(reg, m.Reclaimed)
		m.CallbacksFired = register(reg, m.CallbacksFired)
	}
	return m
}

// register returns the collector already registered under the same
// descriptor, so two managers on one registry share their series.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) recordRequest(typ string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(typ).Inc()
}

func (m *Metrics) recordLoad(typ string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "loaded"
	}
	m.Loads.WithLabelValues(typ, result).Inc()
	m.LoadDuration.WithLabelValues(typ).Observe(seconds)
}

func (m *Metrics) recordResident(typ string, delta float64) {
	if m == nil {
		return
	}
	m.Resident.WithLabelValues(typ).Add(delta)
}

func (m *Metrics) recordReclaim(action string) {
	if m == nil {
		return
	}
	m.Reclaimed.WithLabelValues(action).Inc()
}

func (m *Metrics) recordCallbacks(n int) {
	if m == nil || n == 0 {
		return
	}
	m.CallbacksFired.Add(float64(n))
}
