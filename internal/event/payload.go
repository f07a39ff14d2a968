package event

import "encoding/json"

// PayloadVersion is the protocol version carried in payload envelopes.
const PayloadVersion = 1

// DirectPayload is the content of a direct crash rumor (kind 10420).
type DirectPayload struct {
	// V is the protocol version for forward compatibility.
	V int `json:"v"`
	// Crash is the crash report object.
	Crash json.RawMessage `json:"crash"`
}

// ManifestPayload is the content of a manifest rumor (kind 10421). It is
// the only artifact that must stay secret: the root hash is the capability
// needed to decrypt the public chunks.
type ManifestPayload struct {
	// V is the protocol version for forward compatibility.
	V int `json:"v"`
	// RootHash is the hex-encoded root hash over the ordered chunk hashes.
	RootHash string `json:"root_hash"`
	// TotalSize is the original payload size in bytes.
	TotalSize uint64 `json:"total_size"`
	// ChunkCount is the number of chunks.
	ChunkCount int `json:"chunk_count"`
	// ChunkIDs are the chunk event ids in ascending index order.
	ChunkIDs []string `json:"chunk_ids"`
	// ChunkRelays maps chunk event ids to the relay urls that confirmed
	// them. Optional; omitted when no chunk was confirmed.
	ChunkRelays map[string][]string `json:"chunk_relays,omitempty"`
}

// ChunkPayload is the content of a public chunk event (kind 10422).
type ChunkPayload struct {
	// V is the protocol version for forward compatibility.
	V int `json:"v"`
	// Index is the 0-based chunk index.
	Index int `json:"index"`
	// Hash is the hex-encoded content hash of the chunk plaintext. It is
	// also the material the chunk's decryption key is derived from.
	Hash string `json:"hash"`
	// Data is the base64-encoded ciphertext with authentication tag.
	Data string `json:"data"`
}

// ParseManifestPayload parses a manifest rumor's content.
func ParseManifestPayload(content string) (*ManifestPayload, error) {
	var m ManifestPayload
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseChunkPayload parses a chunk event's content.
func ParseChunkPayload(content string) (*ChunkPayload, error) {
	var c ChunkPayload
	if err := json.Unmarshal([]byte(content), &c); err != nil {
		return nil, err
	}
	return &c, nil
}
