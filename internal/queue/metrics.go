package queue

import "time"

// Metrics is the observation seam for queue activity. Implementations must
// be safe for concurrent use; the prometheus collector in internal/metrics
// satisfies it.
type Metrics interface {
	ObservePush()
	ObserveOverflow()
	ObserveFlush(records int, elapsed time.Duration)
	ObserveFault()
	ObserveDepth(stored, pending int)
}

// NoopMetrics is used when no metrics sink is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObservePush()                    {}
func (NoopMetrics) ObserveOverflow()                {}
func (NoopMetrics) ObserveFlush(int, time.Duration) {}
func (NoopMetrics) ObserveFault()                   {}
func (NoopMetrics) ObserveDepth(int, int)           {}
