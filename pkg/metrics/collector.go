package metrics

import (
	"time"

	"github.com/boxrun/sandboxd/pkg/types"
)

// Source is the subset of BoxManager the collector needs. Defining it
// here (rather than importing pkg/boxmgr directly) avoids a dependency
// cycle, since pkg/boxmgr itself reports install/snapshot outcomes (and
// pkg/boxproc, which it imports, reports exec outcomes) through the
// package-level counters in metrics.go.
type Source interface {
	ListBoxes() []*types.Box
	PrewarmQueueLen() int
}

// Collector periodically samples box registry state into the gauges
// above, the same ticker-plus-stopCh pattern this codebase uses for all
// of its background samplers.
type Collector struct {
	source Source
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over source.
func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds.
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
	c.collectBoxMetrics()
}

func (c *Collector) collectBoxMetrics() {
	boxes := c.source.ListBoxes()

	counts := make(map[types.BoxState]int)
	for _, b := range boxes {
		counts[b.State]++
	}

	for _, state := range []types.BoxState{
		types.BoxStateStarting,
		types.BoxStateRunning,
		types.BoxStateExecuting,
		types.BoxStateStopping,
		types.BoxStateStopped,
	} {
		BoxesTotal.WithLabelValues(string(state)).Set(float64(counts[state]))
	}

	PrewarmQueueSize.Set(float64(c.source.PrewarmQueueLen()))
}
