package bugstr

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bugstr/client-go/internal/chunk"
	"github.com/bugstr/client-go/internal/crypto"
	"github.com/bugstr/client-go/internal/event"
)

// Report is a crash report recovered from a gift wrap on the receiving
// side.
type Report struct {
	// Kind is the rumor kind (direct crash, manifest, or chat).
	Kind int
	// SenderPubkey is the verified seal signer in lowercase hex.
	SenderPubkey string
	// CreatedAt is the rumor's true event time.
	CreatedAt time.Time
	// Content is the rumor content. For manifests this is the manifest
	// JSON; for direct reports the direct payload JSON.
	Content string
}

// Open decrypts a gift wrap addressed to the identity with the given
// 32-byte secret seed (64 hex chars) and returns the inner report. The
// seal signature is verified and the rumor author must match the seal
// signer.
func Open(wrapJSON []byte, recipientSeedHex string) (*Report, error) {
	recipient, err := crypto.IdentityFromSeedHex(recipientSeedHex)
	if err != nil {
		return nil, err
	}

	wrap, err := event.Unmarshal(wrapJSON)
	if err != nil {
		return nil, fmt.Errorf("parse gift wrap: %w", err)
	}

	rumor, err := event.Unwrap(wrap, recipient)
	if err != nil {
		return nil, wrapError(err)
	}

	return &Report{
		Kind:         rumor.Kind,
		SenderPubkey: rumor.Pubkey,
		CreatedAt:    time.Unix(rumor.CreatedAt, 0),
		Content:      rumor.Content,
	}, nil
}

// AssembleChunked reconstructs the original payload from a manifest
// rumor's content and the contents of the chunk events it names. The
// received chunk set is verified against the manifest's root hash before
// anything is decrypted; a mismatch yields an IntegrityError. A gzip
// compression envelope, if present, is transparently removed.
func AssembleChunked(manifestContent string, chunkContents []string) ([]byte, error) {
	manifest, err := event.ParseManifestPayload(manifestContent)
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	rootHash, err := hex.DecodeString(manifest.RootHash)
	if err != nil {
		return nil, fmt.Errorf("decode root hash: %w", err)
	}

	records := make([]chunk.Record, 0, len(chunkContents))
	for _, content := range chunkContents {
		payload, err := event.ParseChunkPayload(content)
		if err != nil {
			return nil, fmt.Errorf("parse chunk: %w", err)
		}

		hash, err := hex.DecodeString(payload.Hash)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: decode hash: %w", payload.Index, err)
		}
		ciphertext, err := crypto.FromBase64(payload.Data)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: decode data: %w", payload.Index, err)
		}

		records = append(records, chunk.Record{
			Index:      payload.Index,
			Hash:       hash,
			Ciphertext: ciphertext,
		})
	}

	if len(records) != manifest.ChunkCount {
		return nil, &IntegrityError{
			Err: fmt.Errorf("expected %d chunks, got %d", manifest.ChunkCount, len(records)),
		}
	}

	payload, err := chunk.Reassemble(rootHash, records)
	if err != nil {
		return nil, wrapError(err)
	}

	return decompressPayload(payload)
}
