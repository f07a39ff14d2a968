package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"

	"github.com/cloudflare/circl/sign/ed25519"
)

// Identity is an Ed25519 signing identity. The 32-byte public key, as
// lowercase hex, is the identity string carried in event pubkey fields.
type Identity struct {
	seed []byte
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// GenerateIdentity creates a new identity from the given entropy source.
// If entropy is nil, crypto/rand is used.
func GenerateIdentity(entropy io.Reader) (*Identity, error) {
	if entropy == nil {
		entropy = rand.Reader
	}
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(entropy, seed); err != nil {
		return nil, err
	}
	return IdentityFromSeed(seed)
}

// IdentityFromSeed reconstructs an identity from its 32-byte seed.
func IdentityFromSeed(seed []byte) (*Identity, error) {
	if len(seed) != SeedSize {
		return nil, ErrInvalidSeedSize
	}
	s := make([]byte, SeedSize)
	copy(s, seed)
	priv := ed25519.NewKeyFromSeed(s)
	return &Identity{
		seed: s,
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// IdentityFromSeedHex reconstructs an identity from a 64-hex seed string.
func IdentityFromSeedHex(seedHex string) (*Identity, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, ErrInvalidSeedSize
	}
	return IdentityFromSeed(seed)
}

// PublicKey returns the raw 32-byte public key.
func (id *Identity) PublicKey() []byte {
	pub := make([]byte, PublicKeySize)
	copy(pub, id.pub)
	return pub
}

// PublicKeyHex returns the public key as lowercase hex.
func (id *Identity) PublicKeyHex() string {
	return hex.EncodeToString(id.pub)
}

// Seed returns a copy of the 32-byte seed.
func (id *Identity) Seed() []byte {
	s := make([]byte, SeedSize)
	copy(s, id.seed)
	return s
}

// Sign signs the message and returns a 64-byte signature.
func (id *Identity) Sign(message []byte) []byte {
	return ed25519.Sign(id.priv, message)
}

// Verify reports whether sig is a valid signature over message by the
// identity whose public key is pubHex.
func Verify(pubHex string, message, sig []byte) bool {
	pub, err := DecodePublicKey(pubHex)
	if err != nil || len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig)
}

// DecodePublicKey decodes a 64-hex public key string to raw bytes.
// Uppercase input is accepted and normalized.
func DecodePublicKey(pubHex string) ([]byte, error) {
	pub, err := hex.DecodeString(strings.ToLower(pubHex))
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	if len(pub) != PublicKeySize {
		return nil, ErrInvalidPublicKeySize
	}
	return pub, nil
}
