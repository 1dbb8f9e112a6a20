package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_scans_total",
			Help: "Total scan decisions by result",
		},
		[]string{"result"},
	)

	syncOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_sync_operations_total",
			Help: "Total sync operations by type and outcome",
		},
		[]string{"operation", "status"},
	)

	pendingSyncTickets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gate_pending_sync_tickets",
			Help: "Tickets validated locally but not yet acknowledged by the store",
		},
	)

	cachedTickets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gate_cached_tickets",
			Help: "Tickets held in the local day cache",
		},
	)

	storeOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gate_store_online",
			Help: "Whether the ticket store is currently reachable (1/0)",
		},
	)

	storeWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gate_store_write_duration_seconds",
			Help:    "Duration of ticket store write-backs",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func RecordScan(result string) {
	scansTotal.WithLabelValues(result).Inc()
}

func RecordSyncOperation(operation, status string) {
	syncOperations.WithLabelValues(operation, status).Inc()
}

func SetPendingSync(count int) {
	pendingSyncTickets.Set(float64(count))
}

func SetCachedTickets(count int) {
	cachedTickets.Set(float64(count))
}

func SetStoreOnline(online bool) {
	if online {
		storeOnline.Set(1)
		return
	}
	storeOnline.Set(0)
}

func ObserveStoreWrite(seconds float64) {
	storeWriteDuration.Observe(seconds)
}
