// Package metrics provides Prometheus instrumentation for the upload and
// capsule-store subsystems, grounded on the per-subsystem *Metrics structs
// used throughout dittofs (see internal/protocol/nfs/v4/state/session_metrics.go).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "memvault"

// UploadMetrics instruments session lifecycle and chunk throughput. All
// methods are nil-safe: calls on a nil *UploadMetrics are no-ops, so callers
// can wire metrics optionally.
type UploadMetrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCommitted prometheus.Counter
	SessionsAborted   *prometheus.CounterVec
	SessionsActive    prometheus.Gauge

	ChunkBytesWritten prometheus.Histogram
	ChunkWriteLatency prometheus.Histogram
	CommitLatency     prometheus.Histogram

	IntegrityMismatches prometheus.Counter
	TTLExpirations      prometheus.Counter
}

// NewUploadMetrics creates and registers upload metrics. If reg is nil,
// the metrics are constructed but not registered (useful for tests).
func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	m := &UploadMetrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "sessions_started_total",
			Help:      "Total number of upload sessions begun",
		}),
		SessionsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "sessions_committed_total",
			Help:      "Total number of upload sessions that finished and committed a memory",
		}),
		SessionsAborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "sessions_aborted_total",
			Help:      "Total number of upload sessions aborted, labeled by reason",
		}, []string{"reason"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "sessions_active",
			Help:      "Current number of in-flight upload sessions",
		}),
		ChunkBytesWritten: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "chunk_bytes_written",
			Help:      "Size in bytes of chunks written via uploads_put_chunk",
			Buckets:   prometheus.ExponentialBuckets(1024, 2, 12),
		}),
		ChunkWriteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "chunk_write_latency_seconds",
			Help:      "Latency of a single uploads_put_chunk call",
			Buckets:   prometheus.DefBuckets,
		}),
		CommitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "commit_latency_seconds",
			Help:      "Latency of uploads_finish, from hash verification through index commit",
			Buckets:   prometheus.DefBuckets,
		}),
		IntegrityMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "integrity_mismatches_total",
			Help:      "Total number of uploads_finish calls that failed hash or length verification",
		}),
		TTLExpirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "ttl_expirations_total",
			Help:      "Total number of upload sessions reaped by TickTTL",
		}),
	}

	if reg != nil {
		registerAll(reg,
			m.SessionsStarted, m.SessionsCommitted, m.SessionsAborted, m.SessionsActive,
			m.ChunkBytesWritten, m.ChunkWriteLatency, m.CommitLatency,
			m.IntegrityMismatches, m.TTLExpirations,
		)
	}
	return m
}

func (m *UploadMetrics) RecordBegin() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
	m.SessionsActive.Inc()
}

func (m *UploadMetrics) RecordChunk(bytesWritten int, latencySeconds float64) {
	if m == nil {
		return
	}
	m.ChunkBytesWritten.Observe(float64(bytesWritten))
	m.ChunkWriteLatency.Observe(latencySeconds)
}

func (m *UploadMetrics) RecordCommit(latencySeconds float64) {
	if m == nil {
		return
	}
	m.SessionsCommitted.Inc()
	m.SessionsActive.Dec()
	m.CommitLatency.Observe(latencySeconds)
}

func (m *UploadMetrics) RecordAbort(reason string) {
	if m == nil {
		return
	}
	m.SessionsAborted.WithLabelValues(reason).Inc()
	m.SessionsActive.Dec()
}

func (m *UploadMetrics) RecordIntegrityMismatch() {
	if m == nil {
		return
	}
	m.IntegrityMismatches.Inc()
}

func (m *UploadMetrics) RecordTTLExpirations(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TTLExpirations.Add(float64(n))
	m.SessionsActive.Sub(float64(n))
}

// CapsuleStoreMetrics instruments capsule/memory catalog operations.
type CapsuleStoreMetrics struct {
	CapsulesTotal   prometheus.Gauge
	MemoriesTotal   prometheus.Gauge
	InlineBytesUsed prometheus.Gauge

	CascadeDeletes    *prometheus.CounterVec
	AssetsCleanedUp   prometheus.Counter
	BlobRefsErased    prometheus.Counter
	OperationLatency  *prometheus.HistogramVec
}

// NewCapsuleStoreMetrics creates and registers capsule-store metrics.
func NewCapsuleStoreMetrics(reg prometheus.Registerer) *CapsuleStoreMetrics {
	m := &CapsuleStoreMetrics{
		CapsulesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "capsulestore",
			Name:      "capsules_total",
			Help:      "Current number of capsules in the store",
		}),
		MemoriesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "capsulestore",
			Name:      "memories_total",
			Help:      "Current number of memories across all capsules",
		}),
		InlineBytesUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "capsulestore",
			Name:      "inline_bytes_used",
			Help:      "Current total bytes held inline across all capsules",
		}),
		CascadeDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capsulestore",
			Name:      "cascade_deletes_total",
			Help:      "Total number of cascade deletes, labeled by scope",
		}, []string{"scope"}),
		AssetsCleanedUp: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capsulestore",
			Name:      "assets_cleaned_up_total",
			Help:      "Total number of assets removed via cleanup_assets_all",
		}),
		BlobRefsErased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capsulestore",
			Name:      "blob_refs_erased_total",
			Help:      "Total number of blobs erased after their reference count reached zero",
		}),
		OperationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "capsulestore",
			Name:      "operation_latency_seconds",
			Help:      "Latency of CapsuleStore operations, labeled by operation name",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"})}

	if reg != nil {
		registerAll(reg,
			m.CapsulesTotal, m.MemoriesTotal, m.InlineBytesUsed,
			m.CascadeDeletes, m.AssetsCleanedUp, m.BlobRefsErased, m.OperationLatency,
		)
	}
	return m
}

func (m *CapsuleStoreMetrics) RecordCascadeDelete(scope string) {
	if m == nil {
		return
	}
	m.CascadeDeletes.WithLabelValues(scope).Inc()
}

func (m *CapsuleStoreMetrics) RecordAssetsCleaned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AssetsCleanedUp.Add(float64(n))
}

func (m *CapsuleStoreMetrics) RecordBlobErased() {
	if m == nil {
		return
	}
	m.BlobRefsErased.Inc()
}

func (m *CapsuleStoreMetrics) ObserveOperation(operation string, latencySeconds float64) {
	if m == nil {
		return
	}
	m.OperationLatency.WithLabelValues(operation).Observe(latencySeconds)
}

func registerAll(reg prometheus.Registerer, collectors ...prometheus.Collector) {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
