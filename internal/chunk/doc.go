// Package chunk splits oversized payloads into content-addressed,
// convergently encrypted chunks and reassembles them.
//
// Each plaintext slice is encrypted under a key derived from its own
// SHA-256 hash, so chunks are public yet computationally opaque without
// the manifest that names their hashes. The root hash over the ordered
// chunk hashes authenticates a complete chunk set; reassembly verifies it
// before decrypting anything.
package chunk
