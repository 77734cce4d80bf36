package upload

// Process-wide sizing and back-pressure constants.
const (
	// ChunkSize is the fixed chunk size for the chunked upload path,
	// chosen to stay below typical transport message-size bounds while
	// keeping chunk counts low.
	ChunkSize = 1_800_000

	// InlineMax is the inline-asset ceiling; larger payloads must use the
	// chunked path.
	InlineMax = 32_768

	// CapsuleInlineBudget is the default per-capsule cap on aggregate
	// inline bytes.
	CapsuleInlineBudget = 10 * 1024 * 1024

	// MaxActivePerPrincipal bounds concurrent active sessions per owner.
	MaxActivePerPrincipal = 100

	// MaxChunks bounds expected_chunks per session.
	MaxChunks = 16_384
)
