package metrics

import "time"

// Source is the subset of pkg/registry.Registry the collector needs, kept
// as an interface so this package never imports pkg/registry.
type Source interface {
	GetIndexes() []string
	Count(name string) (int, error)
	MaxElements(name string) (int, error)
}

// Collector periodically samples a registry and publishes gauge metrics
// for it, a polling shape for gauges that have no natural "on change"
// hook.
type Collector struct {
	source Source
	stopCh chan struct{}
}

// NewCollector creates a collector over source.
func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every interval, collecting once
// immediately first.
func (c *Collector) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
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
	names := c.source.GetIndexes()
	IndexesTotal.Set(float64(len(names)))

	for _, name := range names {
		if count, err := c.source.Count(name); err == nil {
			IndexItemsTotal.WithLabelValues(name).Set(float64(count))
		}
		if max, err := c.source.MaxElements(name); err == nil {
			IndexCapacity.WithLabelValues(name).Set(float64(max))
		}
	}
}
