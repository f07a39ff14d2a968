package crypto

const (
	// SeedSize is the size of an identity seed (secret key material) in bytes.
	SeedSize = 32
	// PublicKeySize is the size of an identity public key in bytes.
	PublicKeySize = 32
	// SignatureSize is the size of an event signature in bytes.
	SignatureSize = 64

	// ConversationKeySize is the size of a derived conversation key in bytes.
	ConversationKeySize = 32
	// ConversationVersion is the current conversation cipher version byte.
	ConversationVersion = 0x01
	// NonceSize is the size of the conversation cipher nonce in bytes.
	NonceSize = 12
	// TagSize is the size of an AEAD authentication tag in bytes.
	TagSize = 16

	// MaxPlaintextSize is the maximum plaintext size the conversation
	// cipher accepts. Sized so the wrap layer, which carries the seal JSON
	// of a threshold-sized direct payload after base64 expansion, still
	// fits. Larger payloads must go through the chunked transport.
	MaxPlaintextSize = 96 * 1024

	// CHKKeySize is the size of a derived chunk encryption key in bytes.
	CHKKeySize = 32
	// HashSize is the size of a chunk content hash in bytes.
	HashSize = 32
)

// Domain separation strings for HKDF key derivation.
const (
	// CHKSalt is the HKDF salt for convergent chunk keys.
	CHKSalt = "hashtree-chk"
	// CHKInfo is the HKDF info for convergent chunk keys.
	CHKInfo = "encryption-key"
	// ConversationSalt is the HKDF salt for conversation keys.
	ConversationSalt = "bugstr-conversation-v1"
	// ConversationInfo is the HKDF info for conversation keys.
	ConversationInfo = "conversation-key"
)
