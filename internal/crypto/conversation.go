package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"io"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

// ConversationKey derives the shared symmetric key between a local identity
// and a remote public key. The derivation is symmetric: the key derived by
// the sender from the recipient's public key equals the key the recipient
// derives from the sender's (or ephemeral wrapper's) public key.
//
// Ed25519 keys are mapped to their X25519 equivalents, the X25519 shared
// point is computed, and the result is run through HKDF-SHA256.
func ConversationKey(local *Identity, remotePubHex string) ([]byte, error) {
	remotePub, err := DecodePublicKey(remotePubHex)
	if err != nil {
		return nil, err
	}

	scalar := x25519Scalar(local.seed)

	montPub, err := x25519PublicKey(remotePub)
	if err != nil {
		return nil, err
	}

	shared, err := curve25519.X25519(scalar, montPub)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}

	return DeriveKey(shared, []byte(ConversationSalt), []byte(ConversationInfo), ConversationKeySize)
}

// x25519Scalar derives the clamped X25519 scalar from an Ed25519 seed.
func x25519Scalar(seed []byte) []byte {
	h := sha512.Sum512(seed)
	scalar := h[:32]
	scalar[0] &= 248
	scalar[31] &= 127
	scalar[31] |= 64
	return scalar
}

// x25519PublicKey converts an Ed25519 public key to its X25519 form.
func x25519PublicKey(edPub []byte) ([]byte, error) {
	p, err := new(edwards25519.Point).SetBytes(edPub)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return p.BytesMontgomery(), nil
}

// EncryptConversation encrypts plaintext under a conversation key using the
// versioned cipher. Output layout: version (1 byte) || nonce (12 bytes) ||
// ciphertext || tag (16 bytes).
func EncryptConversation(key, plaintext []byte, entropy io.Reader) ([]byte, error) {
	if len(plaintext) > MaxPlaintextSize {
		return nil, ErrPlaintextTooLarge
	}
	if entropy == nil {
		entropy = rand.Reader
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(entropy, nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+NonceSize+len(plaintext)+TagSize)
	out = append(out, ConversationVersion)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// DecryptConversation decrypts a versioned conversation ciphertext.
func DecryptConversation(key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 1+NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}
	if ciphertext[0] != ConversationVersion {
		return nil, ErrUnknownVersion
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	nonce := ciphertext[1 : 1+NonceSize]
	plaintext, err := aead.Open(nil, nonce, ciphertext[1+NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
