// Package metrics exposes Prometheus instrumentation for queues and the
// shared storage layer. A single Registry owns every collector; queues get
// labeled views so per-queue series appear and disappear with the queue.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every collector behind one scrape endpoint.
type Registry struct {
	reg *prometheus.Registry

	pushes    *prometheus.CounterVec
	overflows *prometheus.CounterVec
	faults    *prometheus.CounterVec
	flushes   *prometheus.CounterVec
	drained   *prometheus.CounterVec
	flushDur  *prometheus.HistogramVec
	stored    *prometheus.GaugeVec
	pending   *prometheus.GaugeVec

	storageWriteDur  prometheus.Histogram
	storageReadDur   prometheus.Histogram
	storageCommitDur prometheus.Histogram
	storageBytes     *prometheus.CounterVec
}

// NewRegistry builds a fresh registry with all collectors registered,
// including the standard Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batchq_pushes_total",
			Help: "Records accepted and written by the queue actor.",
		}, []string{"queue"}),
		overflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batchq_overflow_rejections_total",
			Help: "Pushes rejected synchronously by the capacity bound.",
		}, []string{"queue"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batchq_faults_total",
			Help: "Transitions into the faulted state.",
		}, []string{"queue"}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batchq_flushes_total",
			Help: "Completed flushes, manual and push-triggered.",
		}, []string{"queue"}),
		drained: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batchq_flushed_records_total",
			Help: "Records handed to a drain callback and cleared.",
		}, []string{"queue"}),
		flushDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batchq_flush_duration_seconds",
			Help:    "Time from flush start to storage clear.",
			Buckets: prometheus.DefBuckets,
		}, []string{"queue"}),
		stored: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "batchq_stored_records",
			Help: "Records currently persisted, as seen at the last push.",
		}, []string{"queue"}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "batchq_pending_events",
			Help: "Mailbox depth, as seen at the last push.",
		}, []string{"queue"}),
		storageWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "batchq_storage_write_duration_seconds",
			Help:    "Latency of single-key writes.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		storageReadDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "batchq_storage_read_duration_seconds",
			Help:    "Latency of single-key reads.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		storageCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "batchq_storage_commit_duration_seconds",
			Help:    "Latency of batch commits, including the WAL sync.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		storageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batchq_storage_bytes_total",
			Help: "Bytes moved through the storage layer.",
		}, []string{"op"}),
	}

	r.reg.MustRegister(
		r.pushes, r.overflows, r.faults, r.flushes, r.drained, r.flushDur,
		r.stored, r.pending,
		r.storageWriteDur, r.storageReadDur, r.storageCommitDur, r.storageBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the scrape endpoint for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ForQueue returns the per-queue instrumentation view.
func (r *Registry) ForQueue(name string) *QueueMetrics {
	return &QueueMetrics{r: r, queue: name}
}

// DropQueue removes the per-queue series after a destroy so dead queues do
// not linger in scrapes.
func (r *Registry) DropQueue(name string) {
	r.pushes.DeleteLabelValues(name)
	r.overflows.DeleteLabelValues(name)
	r.faults.DeleteLabelValues(name)
	r.flushes.DeleteLabelValues(name)
	r.drained.DeleteLabelValues(name)
	r.flushDur.DeleteLabelValues(name)
	r.stored.DeleteLabelValues(name)
	r.pending.DeleteLabelValues(name)
}

// Storage returns the hook handed to the Pebble wrapper.
func (r *Registry) Storage() *StorageMetrics {
	return &StorageMetrics{r: r}
}

// QueueMetrics is the queue-facing instrumentation for one named queue.
type QueueMetrics struct {
	r     *Registry
	queue string
}

func (m *QueueMetrics) ObservePush() {
	m.r.pushes.WithLabelValues(m.queue).Inc()
}

func (m *QueueMetrics) ObserveOverflow() {
	m.r.overflows.WithLabelValues(m.queue).Inc()
}

func (m *QueueMetrics) ObserveFault() {
	m.r.faults.WithLabelValues(m.queue).Inc()
}

func (m *QueueMetrics) ObserveFlush(records int, elapsed time.Duration) {
	m.r.flushes.WithLabelValues(m.queue).Inc()
	m.r.drained.WithLabelValues(m.queue).Add(float64(records))
	m.r.flushDur.WithLabelValues(m.queue).Observe(elapsed.Seconds())
}

func (m *QueueMetrics) ObserveDepth(stored, pending int) {
	m.r.stored.WithLabelValues(m.queue).Set(float64(stored))
	m.r.pending.WithLabelValues(m.queue).Set(float64(pending))
}

// StorageMetrics adapts the registry to the storage layer's hook surface.
type StorageMetrics struct {
	r *Registry
}

func (m *StorageMetrics) ObserveWrite(elapsed time.Duration, bytes int) {
	m.r.storageWriteDur.Observe(elapsed.Seconds())
	m.r.storageBytes.WithLabelValues("write").Add(float64(bytes))
}

func (m *StorageMetrics) ObserveRead(elapsed time.Duration, bytes int) {
	m.r.storageReadDur.Observe(elapsed.Seconds())
	m.r.storageBytes.WithLabelValues("read").Add(float64(bytes))
}

func (m *StorageMetrics) ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int) {
	m.r.storageCommitDur.Observe(elapsed.Seconds())
	m.r.storageBytes.WithLabelValues("commit").Add(float64(bytes))
}
