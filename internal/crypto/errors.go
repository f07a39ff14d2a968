package crypto

import "errors"

var (
	// ErrInvalidSeedSize is returned when the identity seed size is invalid.
	ErrInvalidSeedSize = errors.New("invalid seed size")

	// ErrInvalidPublicKeySize is returned when the public key size is invalid.
	ErrInvalidPublicKeySize = errors.New("invalid public key size")

	// ErrInvalidPublicKey is returned when public key bytes do not decode to
	// a valid curve point.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrPlaintextTooLarge is returned when a plaintext exceeds the
	// conversation cipher's maximum size.
	ErrPlaintextTooLarge = errors.New("plaintext exceeds maximum size")

	// ErrInvalidCiphertext is returned when a conversation ciphertext is
	// structurally malformed.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrUnknownVersion is returned when a conversation ciphertext carries
	// an unrecognized version byte.
	ErrUnknownVersion = errors.New("unknown cipher version")

	// ErrDecryptionFailed is returned when AEAD authentication fails.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidHashSize is returned when a chunk content hash has the
	// wrong length.
	ErrInvalidHashSize = errors.New("invalid content hash size")
)
