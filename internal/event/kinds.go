package event

// Event kinds used by the protocol.
const (
	// KindSeal is the middle envelope, signed by the true sender and
	// encrypted to the recipient.
	KindSeal = 13
	// KindChat is a plaintext chat rumor.
	KindChat = 14
	// KindFile is a file rumor.
	KindFile = 15
	// KindGiftWrap is the outer envelope, signed by a single-use identity.
	KindGiftWrap = 1059
	// KindDirectCrash is a crash report delivered directly in the rumor.
	KindDirectCrash = 10420
	// KindManifest is a chunk manifest rumor for oversized reports.
	KindManifest = 10421
	// KindChunk is a public CHK-encrypted chunk event.
	KindChunk = 10422
)

// DirectSizeThreshold is the serialized payload size above which the
// chunked transport is used. Equal to one comfortable single-event relay
// payload after encryption and encoding overhead.
const DirectSizeThreshold = 50 * 1024

// MaxChunkSize is the maximum plaintext slice per chunk. Each chunk must
// fit within relay event limits after base64 encoding and envelope
// overhead.
const MaxChunkSize = 48 * 1024

// IsCrashReportKind reports whether kind carries a crash report rumor.
func IsCrashReportKind(kind int) bool {
	switch kind {
	case KindChat, KindDirectCrash, KindManifest:
		return true
	}
	return false
}

// IsChunkedKind reports whether kind requires chunked reassembly.
func IsChunkedKind(kind int) bool {
	return kind == KindManifest
}
