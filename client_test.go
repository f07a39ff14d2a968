package bugstr

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/bugstr/client-go/internal/event"
)

func TestNew_RecipientValidation(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		wantErr   error
	}{
		{"missing", "", ErrMissingRecipient},
		{"not hex", strings.Repeat("zz", 32), ErrInvalidRecipient},
		{"too short", "abcd", ErrInvalidRecipient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.recipient, asRelayOption(testRelays(1)))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New(%q) error = %v, want %v", tt.recipient, err, tt.wantErr)
			}
		})
	}
}

func TestNew_NormalizesRecipient(t *testing.T) {
	keys := testRecipient(t)
	client, err := New(strings.ToUpper(keys.PublicHex), asRelayOption(testRelays(1)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.Recipient() != keys.PublicHex {
		t.Errorf("Recipient() = %s, want lowercase %s", client.Recipient(), keys.PublicHex)
	}
}

func TestNew_SenderSeed(t *testing.T) {
	keys := testRecipient(t)
	seed := bytes.Repeat([]byte{0x22}, 32)

	c1, err := New(keys.PublicHex, asRelayOption(testRelays(1)), WithSenderSeed(seed))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c2, err := New(keys.PublicHex, asRelayOption(testRelays(1)), WithSenderSeed(seed))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if c1.SenderPubkey() != c2.SenderPubkey() {
		t.Error("same seed produced different sender identities")
	}

	c3, err := New(keys.PublicHex, asRelayOption(testRelays(1)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c4, err := New(keys.PublicHex, asRelayOption(testRelays(1)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c3.SenderPubkey() == c4.SenderPubkey() {
		t.Error("two clients without seeds share a sender identity")
	}
}

func TestNew_ChunkSizeValidation(t *testing.T) {
	keys := testRecipient(t)

	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{"zero selects default", 0, nil},
		{"at maximum", event.MaxChunkSize, nil},
		{"over maximum", event.MaxChunkSize + 1, ErrInvalidChunkSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(keys.PublicHex, asRelayOption(testRelays(1)), WithChunkSize(tt.size))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_RelayCount(t *testing.T) {
	keys := testRecipient(t)
	client, err := New(keys.PublicHex, asRelayOption(testRelays(3)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.RelayCount() != 3 {
		t.Errorf("RelayCount() = %d, want 3", client.RelayCount())
	}
}

func TestGenerateIdentity_Keys(t *testing.T) {
	entropy := bytes.NewReader(bytes.Repeat([]byte{0x33}, 32))
	keys, err := GenerateIdentity(entropy)
	if err != nil {
		t.Fatalf("GenerateIdentity() error = %v", err)
	}
	if len(keys.PublicHex) != 64 {
		t.Errorf("public hex length = %d, want 64", len(keys.PublicHex))
	}
	if len(keys.SeedHex) != 64 {
		t.Errorf("seed hex length = %d, want 64", len(keys.SeedHex))
	}

	again, err := GenerateIdentity(bytes.NewReader(bytes.Repeat([]byte{0x33}, 32)))
	if err != nil {
		t.Fatalf("GenerateIdentity() error = %v", err)
	}
	if again.PublicHex != keys.PublicHex || again.SeedHex != keys.SeedHex {
		t.Error("identical entropy produced different identities")
	}
}
