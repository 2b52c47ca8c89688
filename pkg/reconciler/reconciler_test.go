package reconciler

import (
	"testing"
	"time"

	"github.com/cuemby/vexdb/pkg/catalog"
	"github.com/cuemby/vexdb/pkg/storage"
	"github.com/cuemby/vexdb/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestReconcileCheckpointsTheCatalog(t *testing.T) {
	cat, err := catalog.Open(t.TempDir(), storage.Options{VolumeFactory: storage.HeapVolumeFactory})
	assert.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	_, err = cat.CreateSchema(types.MustParseName("s1"))
	assert.NoError(t, err)

	r := NewReconciler(cat, time.Hour)
	assert.NoError(t, r.reconcile())
}

func TestStartStopRunsAtLeastOneCycle(t *testing.T) {
	cat, err := catalog.Open(t.TempDir(), storage.Options{VolumeFactory: storage.HeapVolumeFactory})
	assert.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	before := checkpointCount(t)
	r := NewReconciler(cat, 10*time.Millisecond)
	r.Start()
	t.Cleanup(r.Stop)

	assert.Eventually(t, func() bool {
		return checkpointCount(t) > before
	}, time.Second, 5*time.Millisecond)
}

// checkpointCount reads vexdb_wal_checkpoints_total, which every reconcile
// cycle increments, from the default Prometheus registry.
func checkpointCount(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	assert.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "vexdb_wal_checkpoints_total" && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}
