package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Catalog metrics
	SchemasTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vexdb_schemas_total",
			Help: "Total number of open schemas",
		},
	)

	EntitiesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vexdb_entities_total",
			Help: "Total number of entities by schema",
		},
		[]string{"schema"},
	)

	// Storage metrics
	StorageOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vexdb_storage_ops_total",
			Help: "Total number of record store operations by kind and outcome",
		},
		[]string{"op", "outcome"},
	)

	StorageOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vexdb_storage_op_duration_seconds",
			Help:    "Record store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	WALCheckpointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vexdb_wal_checkpoints_total",
			Help: "Total number of WAL checkpoint/truncation cycles completed",
		},
	)

	WALCheckpointDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vexdb_wal_checkpoint_duration_seconds",
			Help:    "Time taken for a WAL checkpoint cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Execution graph metrics
	TaskQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vexdb_exec_active_workers",
			Help: "Current number of live worker-pool goroutines",
		},
	)

	TasksCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vexdb_exec_tasks_total",
			Help: "Total number of execution-graph tasks by terminal state",
		},
		[]string{"state"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vexdb_exec_task_duration_seconds",
			Help:    "Execution-graph task duration in seconds by task kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// kNN metrics
	KNNQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vexdb_knn_query_duration_seconds",
			Help:    "Time taken for a kNN search, including partition merge, in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	KNNCandidatesScanned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vexdb_knn_candidates_scanned_total",
			Help: "Total number of candidate vectors scored across all kNN searches",
		},
	)

	// RPC metrics
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vexdb_rpc_requests_total",
			Help: "Total number of RPC requests by method and status",
		},
		[]string{"method", "status"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vexdb_rpc_request_duration_seconds",
			Help:    "RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(SchemasTotal)
	prometheus.MustRegister(EntitiesTotal)
	prometheus.MustRegister(StorageOpsTotal)
	prometheus.MustRegister(StorageOpDuration)
	prometheus.MustRegister(WALCheckpointsTotal)
	prometheus.MustRegister(WALCheckpointDuration)
	prometheus.MustRegister(TaskQueueDepth)
	prometheus.MustRegister(TasksCompletedTotal)
	prometheus.MustRegister(TaskDuration)
	prometheus.MustRegister(KNNQueryDuration)
	prometheus.MustRegister(KNNCandidatesScanned)
	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCRequestDuration)
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
