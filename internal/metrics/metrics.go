package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the monitor.
type Metrics struct {
	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram
	LastCycleTime prometheus.Gauge

	SignalsTotal       *prometheus.CounterVec // labels: symbol, signal
	NotificationsTotal *prometheus.CounterVec // labels: sink, status
	FetchErrorsTotal   *prometheus.CounterVec // labels: category
	SymbolErrorsTotal  prometheus.Counter

	NarrativesTotal   prometheus.Counter
	NarrativeFailures prometheus.Counter
}

// New registers and returns all metrics on a fresh registry-independent set.
func New() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ichimon_cycles_total",
			Help: "Total monitoring cycles executed",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ichimon_cycle_duration_seconds",
			Help:    "Duration of a full monitoring cycle across all symbols",
			Buckets: prometheus.DefBuckets,
		}),
		LastCycleTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ichimon_last_cycle_timestamp_seconds",
			Help: "Unix time of the last completed monitoring cycle",
		}),

		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ichimon_signals_total",
			Help: "Signal classifications produced (by symbol and label)",
		}, []string{"symbol", "signal"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ichimon_notifications_total",
			Help: "Notification delivery attempts (by sink and status)",
		}, []string{"sink", "status"}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ichimon_fetch_errors_total",
			Help: "Market data fetch failures (by error category)",
		}, []string{"category"}),
		SymbolErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ichimon_symbol_errors_total",
			Help: "Per-symbol cycle failures that were skipped",
		}),

		NarrativesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ichimon_narratives_total",
			Help: "LLM narratives generated for notifications",
		}),
		NarrativeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ichimon_narrative_failures_total",
			Help: "LLM narrative attempts that failed and were skipped",
		}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.LastCycleTime,
		m.SignalsTotal,
		m.NotificationsTotal,
		m.FetchErrorsTotal,
		m.SymbolErrorsTotal,
		m.NarrativesTotal,
		m.NarrativeFailures,
	)

	return m
}
