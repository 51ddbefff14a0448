package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry-level metrics
	IndexesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vectord_indexes_total",
			Help: "Total number of registered indexes",
		},
	)

	IndexItemsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vectord_index_items_total",
			Help: "Number of rows stored in an index (logically deleted included), by index name",
		},
		[]string{"index"},
	)

	IndexCapacity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vectord_index_capacity",
			Help: "Configured maximum element capacity of an index, by index name",
		},
		[]string{"index"},
	)

	// Connection metrics
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vectord_connections_active",
			Help: "Number of currently open client connections",
		},
	)

	ConnectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vectord_connections_total",
			Help: "Total number of client connections accepted",
		},
	)

	HandshakeFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vectord_handshake_failures_total",
			Help: "Total number of connections rejected during handshake",
		},
	)

	// Command metrics
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vectord_commands_total",
			Help: "Total number of commands dispatched, by command type and result state",
		},
		[]string{"command", "state"},
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vectord_command_duration_seconds",
			Help:    "Command execution duration in seconds, by command type",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// Operation latency metrics
	AddItemsDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vectord_add_items_duration_seconds",
			Help:    "Time taken to add a batch of rows to an index",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vectord_query_duration_seconds",
			Help:    "Time taken to answer a nearest-neighbor query",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vectord_queries_total",
			Help: "Total number of nearest-neighbor queries answered",
		},
	)

	ResizeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vectord_resize_duration_seconds",
			Help:    "Time taken to resize an index's capacity",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Snapshot/persistence metrics
	SnapshotWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vectord_snapshot_write_duration_seconds",
			Help:    "Time taken to write an index snapshot to disk",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vectord_snapshot_load_duration_seconds",
			Help:    "Time taken to lazily load an index snapshot from disk",
			Buckets: prometheus.DefBuckets,
		},
	)

	WorkerPoolInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vectord_worker_pool_in_flight",
			Help: "Number of registry operations currently holding a worker pool slot",
		},
	)
)

func init() {
	prometheus.MustRegister(IndexesTotal)
	prometheus.MustRegister(IndexItemsTotal)
	prometheus.MustRegister(IndexCapacity)
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(ConnectionsTotal)
	prometheus.MustRegister(HandshakeFailuresTotal)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(CommandDuration)
	prometheus.MustRegister(AddItemsDuration)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(ResizeDuration)
	prometheus.MustRegister(SnapshotWriteDuration)
	prometheus.MustRegister(SnapshotLoadDuration)
	prometheus.MustRegister(WorkerPoolInFlight)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
