// Package event implements the wire event model and the three-layer
// envelope codec.
//
// A logical message travels as a rumor (unsigned, true timestamp) inside a
// seal (kind 13, signed by the sender, encrypted to the recipient) inside
// a gift wrap (kind 1059, signed by a single-use identity, encrypted under
// an ephemeral conversation key). Seal and wrap timestamps are backdated
// by independent random offsets so relay observers cannot correlate
// publish time with the true event time.
//
// Event ids are SHA-256 over the RFC 8785 canonical JSON of
// [0, pubkey, created_at, kind, tags, content]; the id digest is also the
// message that Ed25519 signatures cover.
package event
