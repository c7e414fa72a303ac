package evqueue

// These constants size the cache-line padding used by mailboxRing to
// avoid false sharing between cores. handleState pads with its own
// literal 64-byte sizes.
const (
	// sizeOfCacheLine covers both common x86-64 (64B) and Apple Silicon/
	// ARM64 (128B) cache line widths.
	sizeOfCacheLine = 128

	// sizeOfAtomicUint64 is the size of an atomic.Uint64 variable.
	sizeOfAtomicUint64 = 8
)
