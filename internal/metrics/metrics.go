// Package metrics exposes Prometheus counters and histograms for the
// inventory core and the alert scheduler. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GroupsCreated prometheus.Counter
	ItemsAdded    prometheus.Counter
	ItemsUpdated  prometheus.Counter
	ItemsDeleted  prometheus.Counter
	AlertsSent    prometheus.Counter
	StoreErrors   *prometheus.CounterVec
	OpDuration    *prometheus.HistogramVec
}

// New registers all metrics with reg. Pass prometheus.DefaultRegisterer to
// expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GroupsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "fridgly_groups_created_total",
			Help: "Total number of groups created on first sign-in",
		}),
		ItemsAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "fridgly_items_added_total",
			Help: "Total number of items persisted by batch add",
		}),
		ItemsUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "fridgly_items_updated_total",
			Help: "Total number of partial item updates",
		}),
		ItemsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "fridgly_items_soft_deleted_total",
			Help: "Total number of soft-delete transitions",
		}),
		AlertsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "fridgly_expiry_alerts_sent_total",
			Help: "Total number of expiry alerts handed to the notifier",
		}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fridgly_store_errors_total",
			Help: "Store failures surfaced as persistence errors, by operation",
		}, []string{"op"}),
		OpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fridgly_operation_duration_seconds",
			Help:    "Duration of inventory operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"op"}),
	}
}

func (m *Metrics) IncGroupsCreated() {
	if m == nil {
		return
	}
	m.GroupsCreated.Inc()
}

func (m *Metrics) AddItemsAdded(n int) {
	if m == nil {
		return
	}
	m.ItemsAdded.Add(float64(n))
}

func (m *Metrics) IncItemsUpdated() {
	if m == nil {
		return
	}
	m.ItemsUpdated.Inc()
}

func (m *Metrics) IncItemsDeleted() {
	if m == nil {
		return
	}
	m.ItemsDeleted.Inc()
}

func (m *Metrics) IncAlertsSent() {
	if m == nil {
		return
	}
	m.AlertsSent.Inc()
}

func (m *Metrics) IncStoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

// ObserveOp records the duration of op. Call with time.Now() taken at the
// start of the operation.
func (m *Metrics) ObserveOp(op string, start time.Time) {
	if m == nil {
		return
	}
	m.OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
