package reconciler

import (
	"sync"
	"time"

	"github.com/cuemby/vexdb/pkg/catalog"
	"github.com/cuemby/vexdb/pkg/log"
	"github.com/cuemby/vexdb/pkg/metrics"
	"github.com/rs/zerolog"
)

// Reconciler periodically checkpoints the write-ahead log of every open
// record store reachable from the catalogue, bounding WAL growth without
// requiring callers to checkpoint explicitly.
type Reconciler struct {
	catalog  *catalog.Catalog
	logger   zerolog.Logger
	interval time.Duration
	mu       sync.Mutex
	stopCh   chan struct{}
}

// NewReconciler creates a reconciler that checkpoints cat on interval.
func NewReconciler(cat *catalog.Catalog, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reconciler{
		catalog:  cat,
		logger:   log.WithComponent("reconciler"),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the checkpoint loop.
func (r *Reconciler) Start() {
	go r.run()
}

// Stop stops the reconciler.
func (r *Reconciler) Stop() {
	close(r.stopCh)
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Msg("reconciler started")

	for {
		select {
		case <-ticker.C:
			if err := r.reconcile(); err != nil {
				r.logger.Error().Err(err).Msg("checkpoint cycle failed")
			}
		case <-r.stopCh:
			r.logger.Info().Msg("reconciler stopped")
			return
		}
	}
}

// reconcile performs one checkpoint cycle across the whole catalogue.
func (r *Reconciler) reconcile() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.WALCheckpointDuration)
		metrics.WALCheckpointsTotal.Inc()
	}()

	if err := r.catalog.Checkpoint(); err != nil {
		return err
	}
	r.logger.Debug().Msg("checkpoint cycle complete")
	return nil
}
