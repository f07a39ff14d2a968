package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestConversationKey_Symmetric(t *testing.T) {
	sender, err := GenerateIdentity(nil)
	if err != nil {
		t.Fatalf("GenerateIdentity() error = %v", err)
	}
	recipient, err := GenerateIdentity(nil)
	if err != nil {
		t.Fatalf("GenerateIdentity() error = %v", err)
	}

	k1, err := ConversationKey(sender, recipient.PublicKeyHex())
	if err != nil {
		t.Fatalf("ConversationKey(sender, recipient) error = %v", err)
	}
	k2, err := ConversationKey(recipient, sender.PublicKeyHex())
	if err != nil {
		t.Fatalf("ConversationKey(recipient, sender) error = %v", err)
	}

	if !bytes.Equal(k1, k2) {
		t.Error("conversation keys are not symmetric")
	}
	if len(k1) != ConversationKeySize {
		t.Errorf("key size = %d, want %d", len(k1), ConversationKeySize)
	}
}

func TestConversationKey_DistinctPairs(t *testing.T) {
	a, _ := GenerateIdentity(nil)
	b, _ := GenerateIdentity(nil)
	c, _ := GenerateIdentity(nil)

	kab, err := ConversationKey(a, b.PublicKeyHex())
	if err != nil {
		t.Fatalf("ConversationKey() error = %v", err)
	}
	kac, err := ConversationKey(a, c.PublicKeyHex())
	if err != nil {
		t.Fatalf("ConversationKey() error = %v", err)
	}

	if bytes.Equal(kab, kac) {
		t.Error("different conversation pairs derived the same key")
	}
}

func TestEncryptDecryptConversation(t *testing.T) {
	sender, _ := GenerateIdentity(nil)
	recipient, _ := GenerateIdentity(nil)
	key, err := ConversationKey(sender, recipient.PublicKeyHex())
	if err != nil {
		t.Fatalf("ConversationKey() error = %v", err)
	}

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("panic: runtime error")},
		{"binary", bytes.Repeat([]byte{0, 1, 2, 255}, 256)},
		{"large", bytes.Repeat([]byte("a"), 64*1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := EncryptConversation(key, tt.plaintext, nil)
			if err != nil {
				t.Fatalf("EncryptConversation() error = %v", err)
			}
			if ct[0] != ConversationVersion {
				t.Errorf("version byte = %#x, want %#x", ct[0], ConversationVersion)
			}

			pt, err := DecryptConversation(key, ct)
			if err != nil {
				t.Fatalf("DecryptConversation() error = %v", err)
			}
			if !bytes.Equal(pt, tt.plaintext) {
				t.Error("round trip does not match original plaintext")
			}
		})
	}
}

func TestEncryptConversation_PlaintextTooLarge(t *testing.T) {
	key := make([]byte, ConversationKeySize)
	_, err := EncryptConversation(key, make([]byte, MaxPlaintextSize+1), nil)
	if !errors.Is(err, ErrPlaintextTooLarge) {
		t.Errorf("EncryptConversation() error = %v, want ErrPlaintextTooLarge", err)
	}
}

func TestDecryptConversation_Errors(t *testing.T) {
	key := make([]byte, ConversationKeySize)
	ct, err := EncryptConversation(key, []byte("hello"), nil)
	if err != nil {
		t.Fatalf("EncryptConversation() error = %v", err)
	}

	t.Run("truncated", func(t *testing.T) {
		_, err := DecryptConversation(key, ct[:1+NonceSize+TagSize-1])
		if !errors.Is(err, ErrInvalidCiphertext) {
			t.Errorf("error = %v, want ErrInvalidCiphertext", err)
		}
	})

	t.Run("unknown version", func(t *testing.T) {
		bad := append([]byte{}, ct...)
		bad[0] = 0x02
		_, err := DecryptConversation(key, bad)
		if !errors.Is(err, ErrUnknownVersion) {
			t.Errorf("error = %v, want ErrUnknownVersion", err)
		}
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		bad := append([]byte{}, ct...)
		bad[len(bad)-1] ^= 0x01
		_, err := DecryptConversation(key, bad)
		if !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("error = %v, want ErrDecryptionFailed", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other := bytes.Repeat([]byte{9}, ConversationKeySize)
		_, err := DecryptConversation(other, ct)
		if !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("error = %v, want ErrDecryptionFailed", err)
		}
	})
}
