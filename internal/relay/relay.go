package relay

import (
	"context"
	"errors"

	"github.com/bugstr/client-go/internal/event"
)

// Relay is the publish/query capability the distribution engine consumes.
// Implementations must be safe for sequential reuse across calls; the
// engine never issues concurrent calls to the same relay.
type Relay interface {
	// URL returns the relay's endpoint url, used for relay hints and
	// rate-limit bookkeeping.
	URL() string

	// Publish submits an event and returns nil once the relay accepts it.
	Publish(ctx context.Context, ev *event.Event) error

	// HasEvent queries the relay for an event by id and kind. Used only
	// for post-publish verification.
	HasEvent(ctx context.Context, id string, kind int) (bool, error)
}

var (
	// ErrRejected is returned when a relay refuses a published event.
	ErrRejected = errors.New("relay rejected event")

	// ErrConnection is returned when the relay connection fails.
	ErrConnection = errors.New("relay connection failed")
)
