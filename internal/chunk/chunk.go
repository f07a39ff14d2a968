package chunk

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"

	"github.com/bugstr/client-go/internal/crypto"
	"github.com/bugstr/client-go/internal/event"
)

var (
	// ErrEmptyPayload is returned when there is nothing to chunk.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrRootMismatch is returned when the root hash recomputed from a
	// received chunk set does not match the expected root. Nothing is
	// decrypted when this occurs.
	ErrRootMismatch = errors.New("root hash mismatch")
)

// MissingChunkError is returned when a chunk set has a gap or duplicate at
// the given index.
type MissingChunkError struct {
	Index int
}

func (e *MissingChunkError) Error() string {
	return fmt.Sprintf("missing chunk at index %d", e.Index)
}

// Record is one encrypted chunk of a split payload.
type Record struct {
	// Index is the 0-based position of the chunk.
	Index int
	// Hash is the 32-byte content hash of the chunk plaintext.
	Hash []byte
	// Ciphertext is the convergently encrypted slice with its tag.
	Ciphertext []byte
}

// Result is the outcome of splitting a payload.
type Result struct {
	// RootHash is SHA-256 over the content hashes in ascending index order.
	RootHash []byte
	// TotalSize is the original payload size in bytes.
	TotalSize uint64
	// Chunks holds the encrypted chunks in ascending index order.
	Chunks []Record
}

// Split slices a payload into chunks of at most maxChunkSize bytes and
// convergently encrypts each slice. If maxChunkSize is not positive, the
// protocol default is used.
//
// Splitting is deterministic: the same payload always yields the same
// chunk hashes, ciphertexts, and root hash.
func Split(payload []byte, maxChunkSize int) (*Result, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if maxChunkSize <= 0 {
		maxChunkSize = event.MaxChunkSize
	}

	count := (len(payload) + maxChunkSize - 1) / maxChunkSize
	chunks := make([]Record, 0, count)

	rootHasher := sha256.New()
	for index := 0; index*maxChunkSize < len(payload); index++ {
		start := index * maxChunkSize
		end := start + maxChunkSize
		if end > len(payload) {
			end = len(payload)
		}

		hash, ciphertext, err := crypto.EncryptCHK(payload[start:end])
		if err != nil {
			return nil, err
		}

		rootHasher.Write(hash)
		chunks = append(chunks, Record{
			Index:      index,
			Hash:       hash,
			Ciphertext: ciphertext,
		})
	}

	return &Result{
		RootHash:  rootHasher.Sum(nil),
		TotalSize: uint64(len(payload)),
		Chunks:    chunks,
	}, nil
}

// Reassemble reconstructs the original payload from a chunk set.
//
// The root hash is recomputed from the received chunk hashes and checked
// against rootHash before any decryption happens: a chunk whose hash
// cannot be shown to belong to the claimed root is never trusted, and no
// decryption work is wasted on a tampered or incomplete set.
func Reassemble(rootHash []byte, chunks []Record) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyPayload
	}

	sorted := make([]Record, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	rootHasher := sha256.New()
	for i, c := range sorted {
		if c.Index != i {
			return nil, &MissingChunkError{Index: i}
		}
		rootHasher.Write(c.Hash)
	}
	if !bytes.Equal(rootHasher.Sum(nil), rootHash) {
		return nil, ErrRootMismatch
	}

	var payload []byte
	for _, c := range sorted {
		plaintext, err := crypto.DecryptCHK(c.Hash, c.Ciphertext)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.Index, err)
		}
		payload = append(payload, plaintext...)
	}
	return payload, nil
}

// ExpectedCount returns the number of chunks a payload of the given size
// splits into.
func ExpectedCount(payloadSize, maxChunkSize int) int {
	if maxChunkSize <= 0 {
		maxChunkSize = event.MaxChunkSize
	}
	return (payloadSize + maxChunkSize - 1) / maxChunkSize
}
