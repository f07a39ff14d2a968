package bugstr

import (
	"strings"
	"time"

	"github.com/bugstr/client-go/internal/crypto"
	"github.com/bugstr/client-go/internal/distribute"
	"github.com/bugstr/client-go/internal/event"
	"github.com/bugstr/client-go/internal/relay"
)

// Client delivers crash reports to a single recipient identity over a
// fixed set of relays. All configuration is explicit; there is no
// process-wide state.
//
// The per-relay rate-limit state lives on the client, not on a single
// send: consecutive or concurrent sends on one client share the same
// publish windows.
type Client struct {
	cfg       *clientConfig
	recipient string
	sender    *crypto.Identity
	relays    []Relay
	endpoints []*distribute.Endpoint
}

// New creates a client for the given recipient public key (64 hex chars).
func New(recipientPubkey string, opts ...Option) (*Client, error) {
	if recipientPubkey == "" {
		return nil, ErrMissingRecipient
	}
	if _, err := crypto.DecodePublicKey(recipientPubkey); err != nil {
		return nil, ErrInvalidRecipient
	}

	cfg := &clientConfig{
		rateLimit:   DefaultRateLimitInterval,
		settleDelay: DefaultSettleDelay,
		expiration:  DefaultExpiration,
		sendTimeout: DefaultSendTimeout,
		clock:       time.Now,
		redactions:  defaultRedactions,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.chunkSize > event.MaxChunkSize {
		return nil, ErrInvalidChunkSize
	}

	var sender *crypto.Identity
	var err error
	if cfg.senderSeed != nil {
		sender, err = crypto.IdentityFromSeed(cfg.senderSeed)
	} else {
		sender, err = crypto.GenerateIdentity(cfg.entropy)
	}
	if err != nil {
		return nil, err
	}

	relays := cfg.relays
	if len(relays) == 0 {
		urls := cfg.relayURLs
		if len(urls) == 0 {
			urls = defaultRelayURLs
		}
		relays = make([]Relay, len(urls))
		for i, url := range urls {
			relays[i] = relay.NewWebsocket(url)
		}
	}
	if len(relays) == 0 {
		return nil, ErrNoRelays
	}

	endpoints := make([]*distribute.Endpoint, len(relays))
	for i, r := range relays {
		endpoints[i] = &distribute.Endpoint{Relay: r}
	}

	return &Client{
		cfg:       cfg,
		recipient: normalizePubkey(recipientPubkey),
		sender:    sender,
		relays:    relays,
		endpoints: endpoints,
	}, nil
}

// Recipient returns the recipient public key in lowercase hex.
func (c *Client) Recipient() string {
	return c.recipient
}

// SenderPubkey returns this client's sender identity public key in
// lowercase hex. The sender identity signs seals; it is generated fresh
// per client unless a seed was supplied.
func (c *Client) SenderPubkey() string {
	return c.sender.PublicKeyHex()
}

// RelayCount returns the number of configured relays (R in the retry
// policy's loss bound).
func (c *Client) RelayCount() int {
	return len(c.relays)
}

func normalizePubkey(pubkey string) string {
	return strings.ToLower(pubkey)
}
