package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
)

// chkNonce is the all-zero AES-GCM nonce used for convergent encryption.
// A fixed nonce is safe here only because each key is a one-time function
// of the plaintext's hash and is never reused across distinct plaintexts.
var chkNonce = make([]byte, NonceSize)

// EncryptCHK encrypts a plaintext slice with a key derived from its own
// content hash (convergent encryption). Identical plaintext always yields
// identical ciphertext. Returns the 32-byte content hash and the
// ciphertext with the 16-byte tag appended.
func EncryptCHK(plaintext []byte) (hash, ciphertext []byte, err error) {
	h := sha256.Sum256(plaintext)

	aead, err := chkAEAD(h[:])
	if err != nil {
		return nil, nil, err
	}

	return h[:], aead.Seal(nil, chkNonce, plaintext, nil), nil
}

// DecryptCHK decrypts a convergently encrypted chunk using its content
// hash. Returns ErrDecryptionFailed if the ciphertext does not
// authenticate under the derived key.
func DecryptCHK(hash, ciphertext []byte) ([]byte, error) {
	if len(hash) != HashSize {
		return nil, ErrInvalidHashSize
	}

	aead, err := chkAEAD(hash)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, chkNonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// chkAEAD builds the AES-256-GCM cipher for a content hash.
// Key derivation: HKDF-SHA-256(ikm=hash, salt="hashtree-chk", info="encryption-key").
func chkAEAD(hash []byte) (cipher.AEAD, error) {
	key, err := DeriveKey(hash, []byte(CHKSalt), []byte(CHKInfo), CHKKeySize)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}
