package event

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/gowebpki/jcs"

	"github.com/bugstr/client-go/internal/crypto"
)

// Event is the single wire shape used for rumors, seals, gift wraps, and
// chunk events. Sig is the empty string for unsigned rumors.
type Event struct {
	// ID is the canonical event id (64 hex chars).
	ID string `json:"id"`
	// Pubkey is the author's public key (64 hex chars, lowercase).
	Pubkey string `json:"pubkey"`
	// CreatedAt is the event timestamp in unix seconds.
	CreatedAt int64 `json:"created_at"`
	// Kind is the event kind number.
	Kind int `json:"kind"`
	// Tags is an ordered list of ordered string lists.
	Tags [][]string `json:"tags"`
	// Content is the event content.
	Content string `json:"content"`
	// Sig is the 64-byte signature in hex, or "" for unsigned events.
	Sig string `json:"sig"`
}

// New creates an unsigned event with its canonical id computed.
func New(pubkeyHex string, createdAt int64, kind int, tags [][]string, content string) (*Event, error) {
	ev := &Event{
		Pubkey:    strings.ToLower(pubkeyHex),
		CreatedAt: createdAt,
		Kind:      kind,
		Tags:      tags,
		Content:   content,
	}
	if ev.Tags == nil {
		ev.Tags = [][]string{}
	}

	id, err := ev.ComputeID()
	if err != nil {
		return nil, err
	}
	ev.ID = id
	return ev, nil
}

// ComputeID computes the canonical event id:
// SHA-256 over the canonical JSON of
// [0, pubkey, created_at, kind, tags, content].
// Any whitespace or ordering deviation in the serialization produces a
// different id, so the array is run through RFC 8785 canonicalization.
func (ev *Event) ComputeID() (string, error) {
	digest, err := ev.idDigest()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest), nil
}

// idDigest returns the raw 32-byte id digest, which is also the message
// that signatures cover.
func (ev *Event) idDigest() ([]byte, error) {
	tags := ev.Tags
	if tags == nil {
		tags = [][]string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]interface{}{
		0,
		strings.ToLower(ev.Pubkey),
		ev.CreatedAt,
		ev.Kind,
		tags,
		ev.Content,
	}); err != nil {
		return nil, err
	}

	canonical, err := jcs.Transform(buf.Bytes())
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(canonical)
	return digest[:], nil
}

// Sign computes the event id, signs it with the given identity, and fills
// in the ID, Pubkey, and Sig fields.
func (ev *Event) Sign(id *crypto.Identity) error {
	ev.Pubkey = id.PublicKeyHex()

	digest, err := ev.idDigest()
	if err != nil {
		return err
	}

	ev.ID = hex.EncodeToString(digest)
	ev.Sig = hex.EncodeToString(id.Sign(digest))
	return nil
}

// VerifySignature reports whether the event's signature is valid for its
// pubkey and recomputed id.
func (ev *Event) VerifySignature() bool {
	digest, err := ev.idDigest()
	if err != nil {
		return false
	}
	if ev.ID != hex.EncodeToString(digest) {
		return false
	}

	sig, err := hex.DecodeString(ev.Sig)
	if err != nil {
		return false
	}
	return crypto.Verify(ev.Pubkey, digest, sig)
}

// Marshal serializes the event to its wire JSON form.
func (ev *Event) Marshal() ([]byte, error) {
	return json.Marshal(ev)
}

// Unmarshal parses an event from wire JSON.
func Unmarshal(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// TagValue returns the second element of the first tag whose first element
// equals name, or "" if absent.
func (ev *Event) TagValue(name string) string {
	for _, tag := range ev.Tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1]
		}
	}
	return ""
}
