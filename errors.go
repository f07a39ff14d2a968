package bugstr

import (
	"errors"
	"fmt"

	"github.com/bugstr/client-go/internal/chunk"
	"github.com/bugstr/client-go/internal/crypto"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrMissingRecipient is returned when no recipient public key is provided.
	ErrMissingRecipient = errors.New("recipient public key is required")

	// ErrInvalidRecipient is returned when the recipient public key is not
	// a valid 64-hex identity.
	ErrInvalidRecipient = errors.New("invalid recipient public key")

	// ErrNoRelays is returned when a send is attempted with no relays
	// configured.
	ErrNoRelays = errors.New("no relays configured")

	// ErrEmptyPayload is returned when a send is attempted with an empty
	// payload.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrInvalidChunkSize is returned when a configured chunk size exceeds
	// what relay event limits can carry after encoding overhead.
	ErrInvalidChunkSize = errors.New("chunk size exceeds maximum")

	// ErrPayloadTooLarge is returned when a payload exceeds what the
	// encryption layer can carry.
	ErrPayloadTooLarge = errors.New("payload too large for encryption layer")

	// ErrIntegrity is returned when a chunk set's root hash does not
	// verify on reassembly.
	ErrIntegrity = errors.New("chunk set failed integrity verification")

	// ErrManifestPublish is returned when the manifest could not be
	// published to any relay. Without a manifest no chunk can ever be
	// located or decrypted, so this fails the whole send.
	ErrManifestPublish = errors.New("manifest publish failed")

	// ErrDecryptionFailed is returned when an envelope cannot be opened.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// BugstrError is implemented by all SDK errors.
type BugstrError interface {
	error
	BugstrError() // marker method
}

// EncryptionError represents a failure to build an encrypted envelope.
// Fatal: the whole send aborts, since no partial send is meaningful
// without a valid envelope.
type EncryptionError struct {
	Stage string // "seal", "wrap", "chunk"
	Err   error
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("encryption failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *EncryptionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *EncryptionError) Is(target error) bool {
	return target == ErrPayloadTooLarge && errors.Is(e.Err, crypto.ErrPlaintextTooLarge)
}

// BugstrError implements the BugstrError interface.
func (e *EncryptionError) BugstrError() {}

// SigningError represents a failure to sign an event. Fatal, aborts the send.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *SigningError) Unwrap() error {
	return e.Err
}

// BugstrError implements the BugstrError interface.
func (e *SigningError) BugstrError() {}

// IntegrityError indicates that a received chunk set does not belong to
// the claimed root hash. Fatal to that reassembly only.
type IntegrityError struct {
	Err error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity verification failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// BugstrError implements the BugstrError interface.
func (e *IntegrityError) BugstrError() {}

// ManifestPublishError indicates the manifest wrap was rejected by every
// relay. Fatal to the overall send.
type ManifestPublishError struct {
	Err error
}

func (e *ManifestPublishError) Error() string {
	return fmt.Sprintf("manifest publish failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ManifestPublishError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *ManifestPublishError) Is(target error) bool {
	return target == ErrManifestPublish
}

// BugstrError implements the BugstrError interface.
func (e *ManifestPublishError) BugstrError() {}

// wrapError converts internal package errors to public errors so that
// errors.Is() checks work with public sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, chunk.ErrRootMismatch) {
		return &IntegrityError{Err: err}
	}
	var missing *chunk.MissingChunkError
	if errors.As(err, &missing) {
		return &IntegrityError{Err: err}
	}
	if errors.Is(err, chunk.ErrEmptyPayload) {
		return fmt.Errorf("%w: %v", ErrEmptyPayload, err)
	}
	if errors.Is(err, crypto.ErrPlaintextTooLarge) {
		return &EncryptionError{Stage: "seal", Err: err}
	}
	if errors.Is(err, crypto.ErrDecryptionFailed) {
		return fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return err
}
