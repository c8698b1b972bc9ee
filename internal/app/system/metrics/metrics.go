// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Remote event outcomes.
const (
	RemoteApplied    = "applied"
	RemoteSuppressed = "suppressed"
)

// Metrics holds the collectors for the folder editor.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	mutations    *prometheus.CounterVec
	remoteEvents *prometheus.CounterVec
	resyncs      *prometheus.CounterVec
	rollbacks    prometheus.Counter
	sessions     prometheus.Gauge
	jobs         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folderforge",
			Name:      "mutations_total",
			Help:      "Tree mutations by operation and result.",
		}, []string{"op", "result"}),
		remoteEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folderforge",
			Name:      "remote_events_total",
			Help:      "Change feed events by outcome.",
		}, []string{"outcome"}),
		resyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folderforge",
			Name:      "resyncs_total",
			Help:      "Full reloads triggered by remote changes.",
		}, []string{"result"}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "folderforge",
			Name:      "rollbacks_total",
			Help:      "Optimistic updates reverted after a failed write.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "folderforge",
			Name:      "open_sessions",
			Help:      "Editor sessions currently open.",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folderforge",
			Name:      "job_runs_total",
			Help:      "Background job runs by job and result.",
		}, []string{"job", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.remoteEvents, m.resyncs, m.rollbacks, m.sessions, m.jobs)
	}
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveMutation counts one mutation attempt.
func (m *Metrics) ObserveMutation(op string, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, result(err)).Inc()
}

// ObserveRemote counts one change feed event.
func (m *Metrics) ObserveRemote(outcome string) {
	if m == nil {
		return
	}
	m.remoteEvents.WithLabelValues(outcome).Inc()
}

// ObserveResync counts one full reload.
func (m *Metrics) ObserveResync(err error) {
	if m == nil {
		return
	}
	m.resyncs.WithLabelValues(result(err)).Inc()
}

// ObserveRollback counts one reverted optimistic update.
func (m *Metrics) ObserveRollback() {
	if m == nil {
		return
	}
	m.rollbacks.Inc()
}

// SetOpenSessions records the number of open sessions.
func (m *Metrics) SetOpenSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// ObserveJob counts one background job run.
func (m *Metrics) ObserveJob(name string, err error) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(name, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
