// Package crypto implements the cryptographic primitives for the bugstr
// protocol: Ed25519 signing identities, the versioned conversation cipher
// used by seals and gift wraps, and convergent (CHK) chunk encryption.
//
// Identities are Ed25519 keypairs; the 32-byte public key in lowercase hex
// is the identity string carried in events. Conversation keys are derived
// by mapping both parties' Ed25519 keys to X25519, computing the shared
// point, and running it through HKDF-SHA-256. The conversation cipher is
// ChaCha20-Poly1305 with a leading version byte.
//
// CHK (content hash key) encryption derives each chunk's AES-256-GCM key
// from the chunk plaintext's SHA-256 hash, so identical content always
// produces identical ciphertext. This is what makes chunks
// content-addressable: anyone can store them, but only a holder of the
// content hashes (delivered via the gift-wrapped manifest) can decrypt.
package crypto
