/*
Package metrics defines and registers every Prometheus metric the engine
exposes, plus small helpers (Timer, Collector, HealthChecker) used to
populate them.

Metrics are grouped by subsystem: catalogue (schema/entity counts),
storage (record-store op counters/histograms, WAL checkpoint
counter/histogram), the execution graph (active workers, task
counters/histograms by terminal state), kNN search, and RPC request
counters/histograms. All metrics are registered once at package init
via prometheus.MustRegister; Handler returns the promhttp handler
mounted at /metrics.

Collector polls the catalogue and the execution pool on a ticker and
publishes gauge snapshots; it does not touch counters or histograms,
which are updated inline at the call site via Timer.
*/
package metrics
