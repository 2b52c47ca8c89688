/*
Package reconciler runs a background loop that periodically checkpoints
the write-ahead log of every record store reachable from a catalogue —
the catalogue's own store, every schema's store, and every entity
column's store.

Like a worker pool, it is stateless between cycles: each tick walks the
current catalogue and calls Checkpoint on everything it finds, so a
missed or delayed cycle is harmless and the next one catches up.

	rec := reconciler.NewReconciler(cat, 30*time.Second)
	rec.Start()
	defer rec.Stop()

Cycle duration and count are exported via pkg/metrics
(WALCheckpointDuration, WALCheckpointsTotal).
*/
package reconciler
