package metrics

import (
	"time"

	"github.com/cuemby/vexdb/pkg/catalog"
	"github.com/cuemby/vexdb/pkg/exec"
)

// Collector periodically samples the catalogue and the execution pool
// and publishes the results as gauge metrics.
type Collector struct {
	catalog *catalog.Catalog
	pool    *exec.Pool
	stopCh  chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(cat *catalog.Catalog, pool *exec.Pool) *Collector {
	return &Collector{
		catalog: cat,
		pool:    pool,
		stopCh:  make(chan struct{}),
	}
}

// Start begins collecting metrics.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectCatalogMetrics()
	c.collectExecMetrics()
}

func (c *Collector) collectCatalogMetrics() {
	if c.catalog == nil {
		return
	}
	names := c.catalog.SchemaNames()
	SchemasTotal.Set(float64(len(names)))

	for _, name := range names {
		sc, ok := c.catalog.Schema(name)
		if !ok {
			continue
		}
		EntitiesTotal.WithLabelValues(name).Set(float64(len(sc.EntityNames())))
	}
}

func (c *Collector) collectExecMetrics() {
	if c.pool == nil {
		return
	}
	TaskQueueDepth.Set(float64(c.pool.ActiveWorkers()))
}
