package metrics

import (
	"context"
	"time"

	"file-dashboard/internal/logging"
)

// Stats holds the catalog counts exported as gauges.
type Stats struct {
	Files        int64
	Bytes        int64
	Tags         int64
	Associations int64
}

// StatsFunc reads the current catalog counts.
type StatsFunc func(ctx context.Context) (Stats, error)

// Collector periodically collects and updates catalog gauges
type Collector struct {
	stats    StatsFunc
	interval time.Duration
	stopChan chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(stats StatsFunc, interval time.Duration) *Collector {
	return &Collector{
		stats:    stats,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.stats == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := c.stats(ctx)
	if err != nil {
		logging.Warn("Failed to collect catalog metrics: %v", err)
		return
	}

	CatalogFilesTotal.Set(float64(stats.Files))
	CatalogBytesTotal.Set(float64(stats.Bytes))
	CatalogTagsTotal.Set(float64(stats.Tags))
	CatalogTagAssignments.Set(float64(stats.Associations))

	logging.Debug("Metrics collected: files=%d, bytes=%d, tags=%d, assignments=%d",
		stats.Files, stats.Bytes, stats.Tags, stats.Associations)
}
