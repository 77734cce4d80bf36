package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these consistently across
// log statements so aggregation and querying don't fracture across ad-hoc
// key spellings.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Operation & Principal
	// ========================================================================
	KeyOperation  = "operation"   // Logical operation name: begin_upload, uploads_finish, etc.
	KeyPrincipal  = "principal"   // Stable key of the acting PersonRef
	KeyClientIP   = "client_ip"   // Client IP address
	KeyStatus     = "status"      // Operation status code
	KeyStatusMsg  = "status_msg"  // Human-readable status message

	// ========================================================================
	// Capsule / Memory / Session identifiers
	// ========================================================================
	KeyCapsuleID = "capsule_id" // Capsule identifier
	KeyMemoryID  = "memory_id"  // Memory identifier
	KeySessionID = "session_id" // Upload session identifier
	KeyShareID   = "share_id"   // Sharing-core share identifier

	// ========================================================================
	// Upload & Chunk I/O
	// ========================================================================
	KeyChunkIndex     = "chunk_index"     // Zero-based chunk sequence number
	KeyBytesExpected  = "bytes_expected"  // Declared total upload size
	KeyBytesReceived  = "bytes_received"  // Bytes accumulated so far
	KeyBytesWritten   = "bytes_written"   // Bytes written in a single call
	KeyHash           = "hash"            // Rolling/final content hash
	KeyBlobLocator    = "blob_locator"    // Region-relative blob locator

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeySource     = "source"      // Data source: capsulestore, blobstore, sharingcore
	KeyRequestID  = "request_id"  // Caller-supplied idempotency/request id

	// ========================================================================
	// Storage Backend
	// ========================================================================
	KeyStoreName  = "store_name"  // Named store identifier from registry
	KeyStoreType  = "store_type"  // Store type: memory, badger, postgres, s3, fs
	KeyBucket     = "bucket"      // Cloud bucket name (S3)
	KeyRegion     = "region"      // Cloud region / blob region name
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns a slog.Attr for the logical operation name
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Principal returns a slog.Attr for the acting PersonRef's stable key
func Principal(key string) slog.Attr {
	return slog.String(KeyPrincipal, key)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// Status returns a slog.Attr for operation status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// StatusMsg returns a slog.Attr for human-readable status message
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// CapsuleID returns a slog.Attr for a capsule identifier
func CapsuleID(id string) slog.Attr {
	return slog.String(KeyCapsuleID, id)
}

// MemoryID returns a slog.Attr for a memory identifier
func MemoryID(id string) slog.Attr {
	return slog.String(KeyMemoryID, id)
}

// SessionID returns a slog.Attr for an upload session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// ShareID returns a slog.Attr for a sharing-core share identifier
func ShareID(id string) slog.Attr {
	return slog.String(KeyShareID, id)
}

// ChunkIndex returns a slog.Attr for a zero-based chunk sequence number
func ChunkIndex(idx uint32) slog.Attr {
	return slog.Any(KeyChunkIndex, idx)
}

// BytesExpected returns a slog.Attr for the declared total upload size
func BytesExpected(n uint64) slog.Attr {
	return slog.Uint64(KeyBytesExpected, n)
}

// BytesReceived returns a slog.Attr for bytes accumulated so far
func BytesReceived(n uint64) slog.Attr {
	return slog.Uint64(KeyBytesReceived, n)
}

// BytesWritten returns a slog.Attr for bytes written in a single call
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// Hash returns a slog.Attr for a rolling/final content hash
func Hash(h string) slog.Attr {
	return slog.String(KeyHash, h)
}

// BlobLocator returns a slog.Attr for a region-relative blob locator
func BlobLocator(locator string) slog.Attr {
	return slog.String(KeyBlobLocator, locator)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Source returns a slog.Attr for data source
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}

// RequestID returns a slog.Attr for a caller-supplied idempotency/request id
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// StoreName returns a slog.Attr for named store identifier
func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

// StoreType returns a slog.Attr for store type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for cloud bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Region returns a slog.Attr for cloud region / blob region name
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}
