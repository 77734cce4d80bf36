package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestUploadMetricsRecordBeginIncrementsStartedAndActive(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUploadMetrics(reg)

	m.RecordBegin()
	m.RecordBegin()

	if got := testutil.ToFloat64(m.SessionsStarted); got != 2 {
		t.Errorf("SessionsStarted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 2 {
		t.Errorf("SessionsActive = %v, want 2", got)
	}
}

func TestUploadMetricsRecordCommitDecrementsActive(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUploadMetrics(reg)

	m.RecordBegin()
	m.RecordCommit(0.5)

	if got := testutil.ToFloat64(m.SessionsCommitted); got != 1 {
		t.Errorf("SessionsCommitted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 0 {
		t.Errorf("SessionsActive after commit = %v, want 0", got)
	}
}

func TestUploadMetricsRecordAbortLabelsByReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUploadMetrics(reg)

	m.RecordBegin()
	m.RecordAbort("client_request")

	if got := testutil.ToFloat64(m.SessionsAborted.WithLabelValues("client_request")); got != 1 {
		t.Errorf("SessionsAborted{reason=client_request} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 0 {
		t.Errorf("SessionsActive after abort = %v, want 0", got)
	}
}

func TestUploadMetricsRecordTTLExpirationsIgnoresNonPositive(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUploadMetrics(reg)

	m.RecordBegin()
	m.RecordTTLExpirations(0)
	m.RecordTTLExpirations(-3)

	if got := testutil.ToFloat64(m.TTLExpirations); got != 0 {
		t.Errorf("TTLExpirations after non-positive calls = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 1 {
		t.Errorf("SessionsActive after non-positive RecordTTLExpirations = %v, want 1", got)
	}
}

func TestUploadMetricsNilReceiverIsNoOp(t *testing.T) {
	var m *UploadMetrics

	m.RecordBegin()
	m.RecordChunk(100, 0.01)
	m.RecordCommit(0.1)
	m.RecordAbort("timeout")
	m.RecordIntegrityMismatch()
	m.RecordTTLExpirations(5)
}

func TestNewUploadMetricsWithNilRegistererDoesNotPanic(t *testing.T) {
	m := NewUploadMetrics(nil)
	m.RecordBegin()

	if got := testutil.ToFloat64(m.SessionsStarted); got != 1 {
		t.Errorf("SessionsStarted = %v, want 1", got)
	}
}

func TestCapsuleStoreMetricsRecordCascadeDelete(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCapsuleStoreMetrics(reg)

	m.RecordCascadeDelete("capsule")
	m.RecordCascadeDelete("capsule")
	m.RecordCascadeDelete("memory")

	if got := testutil.ToFloat64(m.CascadeDeletes.WithLabelValues("capsule")); got != 2 {
		t.Errorf("CascadeDeletes{scope=capsule} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CascadeDeletes.WithLabelValues("memory")); got != 1 {
		t.Errorf("CascadeDeletes{scope=memory} = %v, want 1", got)
	}
}

func TestCapsuleStoreMetricsRecordAssetsCleanedIgnoresNonPositive(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCapsuleStoreMetrics(reg)

	m.RecordAssetsCleaned(0)
	m.RecordAssetsCleaned(3)

	if got := testutil.ToFloat64(m.AssetsCleanedUp); got != 3 {
		t.Errorf("AssetsCleanedUp = %v, want 3", got)
	}
}

func TestCapsuleStoreMetricsNilReceiverIsNoOp(t *testing.T) {
	var m *CapsuleStoreMetrics

	m.RecordCascadeDelete("capsule")
	m.RecordAssetsCleaned(1)
	m.RecordBlobErased()
	m.ObserveOperation("capsules_create", 0.01)
}

func TestDoubleRegistrationDoesNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()

	NewUploadMetrics(reg)
	NewUploadMetrics(reg)
}
