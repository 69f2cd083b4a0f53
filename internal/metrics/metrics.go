// Package metrics exposes prometheus instrumentation for the scan job
// pipeline, batch dispatch, and the stock ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	JobsEnqueued  prometheus.Counter
	JobsProcessed *prometheus.CounterVec
	QueueDepth    prometheus.GaugeFunc

	BatchItems *prometheus.CounterVec

	StockDeposits   prometheus.Counter
	StockDepletions prometheus.Counter
	StockClamped    prometheus.Counter
}

// New creates the collectors. queueLen feeds the queue depth gauge.
func New(queueLen func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		JobsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealstock_jobs_enqueued_total",
			Help: "Scan jobs added to the ticket queue.",
		}),
		JobsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mealstock_jobs_processed_total",
			Help: "Scan jobs processed, by final status.",
		}, []string{"status"}),
		QueueDepth: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "mealstock_queue_depth",
			Help: "Tickets currently waiting in the job queue.",
		}, queueLen),
		BatchItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mealstock_batch_items_total",
			Help: "Batch items dispatched through the worker pool, by outcome.",
		}, []string{"outcome"}),
		StockDeposits: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealstock_stock_deposits_total",
			Help: "Stock lots deposited.",
		}),
		StockDepletions: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealstock_stock_depletions_total",
			Help: "Stock depletion operations performed.",
		}),
		StockClamped: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealstock_stock_clamped_total",
			Help: "Depletions where available stock was below the requested amount.",
		}),
	}
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
