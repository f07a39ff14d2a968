package event

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/bugstr/client-go/internal/crypto"
)

// timestampWindow is the maximum backdating applied to seal and gift wrap
// timestamps to decorrelate publish time from true message time.
const timestampWindow = 2 * 24 * 60 * 60 // 2 days in seconds

var (
	// ErrNotGiftWrap is returned when unwrapping an event that is not a
	// gift wrap.
	ErrNotGiftWrap = errors.New("event is not a gift wrap")

	// ErrNotSeal is returned when a gift wrap's content is not a seal.
	ErrNotSeal = errors.New("wrapped event is not a seal")

	// ErrSealSignature is returned when a seal's signature does not verify.
	ErrSealSignature = errors.New("seal signature invalid")

	// ErrSenderMismatch is returned when a rumor's pubkey does not match
	// the seal that carried it.
	ErrSenderMismatch = errors.New("rumor sender does not match seal")

	// ErrRumorID is returned when a rumor's id does not match its content.
	ErrRumorID = errors.New("rumor id mismatch")
)

// Envelope is a seal/gift-wrap pair ready for publishing. Only the Wrap
// goes on the wire; the Seal is retained for inspection and tests.
type Envelope struct {
	Seal *Event
	Wrap *Event
}

// WrapOptions controls optional gift wrap tags.
type WrapOptions struct {
	// RelayHint, if set, is appended to the recipient p-tag.
	RelayHint string
	// Expiration, if nonzero, adds an expiration tag with the given unix
	// seconds value.
	Expiration int64
}

// BuildRumor creates the innermost unsigned event. The rumor's created_at
// is the true event time and is never randomized.
func BuildRumor(kind int, tags [][]string, content string, createdAt time.Time, sender *crypto.Identity) (*Event, error) {
	return New(sender.PublicKeyHex(), createdAt.Unix(), kind, tags, content)
}

// SealAndWrap encrypts a rumor to the recipient inside a seal signed by
// the sender's real identity, then wraps the seal for a freshly generated
// single-use identity. The ephemeral identity signs exactly one event and
// is discarded on return.
//
// Seal and wrap timestamps are each independently randomized into the past
// by up to two days. Entropy must be a cryptographically secure source; if
// nil, crypto/rand is used.
func SealAndWrap(rumor *Event, sender *crypto.Identity, recipientHex string, opts WrapOptions, now time.Time, entropy io.Reader) (*Envelope, error) {
	if entropy == nil {
		entropy = rand.Reader
	}

	rumorJSON, err := rumor.Marshal()
	if err != nil {
		return nil, err
	}

	sealKey, err := crypto.ConversationKey(sender, recipientHex)
	if err != nil {
		return nil, err
	}
	sealContent, err := crypto.EncryptConversation(sealKey, rumorJSON, entropy)
	if err != nil {
		return nil, err
	}

	sealAt, err := randomPastTimestamp(now, entropy)
	if err != nil {
		return nil, err
	}
	seal := &Event{
		CreatedAt: sealAt,
		Kind:      KindSeal,
		Tags:      [][]string{},
		Content:   crypto.ToBase64(sealContent),
	}
	if err := seal.Sign(sender); err != nil {
		return nil, err
	}

	ephemeral, err := crypto.GenerateIdentity(entropy)
	if err != nil {
		return nil, err
	}

	sealJSON, err := seal.Marshal()
	if err != nil {
		return nil, err
	}
	wrapKey, err := crypto.ConversationKey(ephemeral, recipientHex)
	if err != nil {
		return nil, err
	}
	wrapContent, err := crypto.EncryptConversation(wrapKey, sealJSON, entropy)
	if err != nil {
		return nil, err
	}

	wrapAt, err := randomPastTimestamp(now, entropy)
	if err != nil {
		return nil, err
	}

	pTag := []string{"p", recipientHex}
	if opts.RelayHint != "" {
		pTag = append(pTag, opts.RelayHint)
	}
	tags := [][]string{pTag}
	if opts.Expiration > 0 {
		tags = append(tags, []string{"expiration", strconv.FormatInt(opts.Expiration, 10)})
	}

	wrap := &Event{
		CreatedAt: wrapAt,
		Kind:      KindGiftWrap,
		Tags:      tags,
		Content:   crypto.ToBase64(wrapContent),
	}
	if err := wrap.Sign(ephemeral); err != nil {
		return nil, err
	}

	return &Envelope{Seal: seal, Wrap: wrap}, nil
}

// Unwrap opens a gift wrap addressed to the recipient and returns the
// inner rumor. The seal's signature is verified and the rumor's author
// must match the seal's signer.
func Unwrap(wrap *Event, recipient *crypto.Identity) (*Event, error) {
	if wrap.Kind != KindGiftWrap {
		return nil, ErrNotGiftWrap
	}

	wrapKey, err := crypto.ConversationKey(recipient, wrap.Pubkey)
	if err != nil {
		return nil, err
	}
	wrapCipher, err := crypto.FromBase64(wrap.Content)
	if err != nil {
		return nil, err
	}
	sealJSON, err := crypto.DecryptConversation(wrapKey, wrapCipher)
	if err != nil {
		return nil, err
	}

	seal, err := Unmarshal(sealJSON)
	if err != nil {
		return nil, err
	}
	if seal.Kind != KindSeal {
		return nil, ErrNotSeal
	}
	if !seal.VerifySignature() {
		return nil, ErrSealSignature
	}

	sealKey, err := crypto.ConversationKey(recipient, seal.Pubkey)
	if err != nil {
		return nil, err
	}
	sealCipher, err := crypto.FromBase64(seal.Content)
	if err != nil {
		return nil, err
	}
	rumorJSON, err := crypto.DecryptConversation(sealKey, sealCipher)
	if err != nil {
		return nil, err
	}

	rumor, err := Unmarshal(rumorJSON)
	if err != nil {
		return nil, err
	}
	if rumor.Pubkey != seal.Pubkey {
		return nil, ErrSenderMismatch
	}

	id, err := rumor.ComputeID()
	if err != nil {
		return nil, err
	}
	if rumor.ID != id {
		return nil, ErrRumorID
	}

	return rumor, nil
}

// randomPastTimestamp returns a unix timestamp backdated by a uniformly
// random offset within the timestamp window.
func randomPastTimestamp(now time.Time, entropy io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(entropy, buf[:]); err != nil {
		return 0, err
	}
	// Offset is at least one second so an envelope timestamp never equals
	// the rumor's true event time.
	offset := 1 + int64(binary.BigEndian.Uint64(buf[:])%(timestampWindow-1))
	return now.Unix() - offset, nil
}
