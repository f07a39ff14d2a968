package bugstr

import (
	"encoding/hex"
	"io"

	"github.com/bugstr/client-go/internal/crypto"
)

// IdentityKeys is a generated recipient identity. The public key is what
// senders configure as the recipient; the seed must be kept secret and is
// required to open received reports.
type IdentityKeys struct {
	// PublicHex is the 32-byte public key in lowercase hex.
	PublicHex string
	// SeedHex is the 32-byte secret seed in lowercase hex.
	SeedHex string
}

// GenerateIdentity creates a fresh recipient identity. If entropy is nil,
// crypto/rand is used.
func GenerateIdentity(entropy io.Reader) (*IdentityKeys, error) {
	id, err := crypto.GenerateIdentity(entropy)
	if err != nil {
		return nil, err
	}
	return &IdentityKeys{
		PublicHex: id.PublicKeyHex(),
		SeedHex:   hex.EncodeToString(id.Seed()),
	}, nil
}
