package bugstr

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bugstr/client-go/internal/crypto"
)

// compressThreshold is the payload size above which gzip compression is
// applied before transport selection.
const compressThreshold = 1024

// compressedEnvelope wraps a gzip-compressed payload.
type compressedEnvelope struct {
	V           int    `json:"v"`
	Compression string `json:"compression"`
	Payload     string `json:"payload"`
}

// maybeCompress gzips payloads over the compression threshold and wraps
// them in a compression envelope. Smaller payloads pass through unchanged.
func maybeCompress(payload []byte) []byte {
	if len(payload) < compressThreshold {
		return payload
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return payload
	}
	if err := gz.Close(); err != nil {
		return payload
	}

	envelope, err := json.Marshal(compressedEnvelope{
		V:           1,
		Compression: "gzip",
		Payload:     crypto.ToBase64(buf.Bytes()),
	})
	if err != nil {
		return payload
	}
	return envelope
}

// decompressPayload reverses maybeCompress. Payloads that do not parse as
// a compression envelope are returned unchanged.
func decompressPayload(payload []byte) ([]byte, error) {
	var envelope compressedEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Compression != "gzip" {
		return payload, nil
	}

	compressed, err := crypto.FromBase64(envelope.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode compressed payload: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open gzip payload: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}
