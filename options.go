package bugstr

import (
	"io"
	"regexp"
	"time"

	"github.com/bugstr/client-go/internal/distribute"
	"github.com/bugstr/client-go/internal/relay"
)

// Relay is the publish/query capability a delivery target must provide.
// The SDK ships a websocket implementation; tests and embedders may supply
// their own.
type Relay = relay.Relay

// Progress is a snapshot of a delivery in flight, passed to progress
// callbacks.
type Progress = distribute.Progress

// ProgressFunc receives progress snapshots during a send.
type ProgressFunc = distribute.ProgressFunc

// Default client configuration.
const (
	// DefaultRateLimitInterval is the minimum spacing between publishes to
	// one relay.
	DefaultRateLimitInterval = distribute.DefaultRateLimitInterval
	// DefaultSettleDelay is the publish-to-verify pause per chunk.
	DefaultSettleDelay = distribute.DefaultSettleDelay
	// DefaultExpiration is how long published reports ask relays to retain
	// them.
	DefaultExpiration = 30 * 24 * time.Hour
	// DefaultSendTimeout bounds a background send started by the capture
	// helpers.
	DefaultSendTimeout = 2 * time.Minute
)

// defaultRelayURLs are used when no relays are configured.
var defaultRelayURLs = []string{
	"wss://relay.damus.io",
	"wss://relay.primal.net",
	"wss://nos.lol",
}

// defaultRedactions strip common credential shapes from crash payloads.
var defaultRedactions = []*regexp.Regexp{
	regexp.MustCompile(`cashuA[a-zA-Z0-9]+`),
	regexp.MustCompile(`(?i)lnbc[a-z0-9]+`),
	regexp.MustCompile(`(?i)npub1[a-z0-9]+`),
	regexp.MustCompile(`(?i)nsec1[a-z0-9]+`),
	regexp.MustCompile(`(?i)https?://[^\s"]*mint[^\s"]*`),
}

// clientConfig holds configuration for the client.
type clientConfig struct {
	relayURLs   []string
	relays      []Relay
	rateLimit   time.Duration
	settleDelay time.Duration
	chunkSize   int
	expiration  time.Duration
	sendTimeout time.Duration
	clock       func() time.Time
	entropy     io.Reader
	senderSeed  []byte
	environment string
	release     string
	redactions  []*regexp.Regexp
	beforeSend  func(*Payload) *Payload
	confirmSend func(Summary) bool
	onSendError func(error)
}

// Option configures the client.
type Option func(*clientConfig)

// WithRelays sets the relay endpoint urls to publish to.
func WithRelays(urls ...string) Option {
	return func(c *clientConfig) {
		c.relayURLs = urls
	}
}

// WithRelayClients sets explicit relay capabilities, bypassing the
// websocket client. Intended for tests and embedders with their own
// transport.
func WithRelayClients(relays ...Relay) Option {
	return func(c *clientConfig) {
		c.relays = relays
	}
}

// WithRateLimitInterval sets the per-relay publish spacing.
// Default: 7.5 seconds.
func WithRateLimitInterval(interval time.Duration) Option {
	return func(c *clientConfig) {
		c.rateLimit = interval
	}
}

// WithSettleDelay sets the pause between publishing a chunk and verifying
// it on the same relay. Default: 2 seconds.
func WithSettleDelay(delay time.Duration) Option {
	return func(c *clientConfig) {
		c.settleDelay = delay
	}
}

// WithChunkSize overrides the maximum plaintext bytes per chunk.
// Default and upper bound: 48KB. New returns ErrInvalidChunkSize for
// sizes above the bound; sizes at or below zero select the default.
func WithChunkSize(size int) Option {
	return func(c *clientConfig) {
		c.chunkSize = size
	}
}

// WithExpiration sets how long relays are asked to retain published
// reports. Zero disables the expiration tag. Default: 30 days.
func WithExpiration(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.expiration = ttl
	}
}

// WithSendTimeout bounds background sends started by the capture helpers.
// Default: 2 minutes.
func WithSendTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.sendTimeout = timeout
	}
}

// WithClock sets the time source. Intended for tests; defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(c *clientConfig) {
		c.clock = clock
	}
}

// WithEntropy sets the random source used for ephemeral identities,
// nonces, and timestamp randomization. Production paths must use a
// cryptographically secure source; the default is crypto/rand. Tests may
// substitute a deterministic reader.
func WithEntropy(r io.Reader) Option {
	return func(c *clientConfig) {
		c.entropy = r
	}
}

// WithSenderSeed sets the sender identity seed (32 bytes). By default a
// fresh sender identity is generated per client.
func WithSenderSeed(seed []byte) Option {
	return func(c *clientConfig) {
		c.senderSeed = seed
	}
}

// WithEnvironment sets the environment tag attached to captured payloads
// (e.g. "production", "staging").
func WithEnvironment(env string) Option {
	return func(c *clientConfig) {
		c.environment = env
	}
}

// WithRelease sets the release version tag attached to captured payloads.
func WithRelease(release string) Option {
	return func(c *clientConfig) {
		c.release = release
	}
}

// WithRedactPatterns replaces the default redaction patterns applied to
// captured messages and stack traces.
func WithRedactPatterns(patterns ...*regexp.Regexp) Option {
	return func(c *clientConfig) {
		c.redactions = patterns
	}
}

// WithBeforeSend sets a hook that may modify or drop captured payloads.
// Return nil to drop the report.
func WithBeforeSend(fn func(*Payload) *Payload) Option {
	return func(c *clientConfig) {
		c.beforeSend = fn
	}
}

// WithConfirmSend sets a hook invoked before a captured report is sent.
// Return true to send. If unset, reports are sent automatically (suitable
// for servers).
func WithConfirmSend(fn func(Summary) bool) Option {
	return func(c *clientConfig) {
		c.confirmSend = fn
	}
}

// WithSendErrorHandler sets a callback for failures of background sends
// started by the capture helpers. By default such failures are dropped so
// reporting can never crash the host application.
func WithSendErrorHandler(fn func(error)) Option {
	return func(c *clientConfig) {
		c.onSendError = fn
	}
}

// sendConfig holds per-send configuration.
type sendConfig struct {
	onProgress ProgressFunc
}

// SendOption configures a single send.
type SendOption func(*sendConfig)

// WithProgress sets a callback receiving progress snapshots for this send.
func WithProgress(fn ProgressFunc) SendOption {
	return func(c *sendConfig) {
		c.onProgress = fn
	}
}
