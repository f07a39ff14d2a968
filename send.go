package bugstr

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/bugstr/client-go/internal/chunk"
	"github.com/bugstr/client-go/internal/crypto"
	"github.com/bugstr/client-go/internal/distribute"
	"github.com/bugstr/client-go/internal/event"
)

// manifestGraceTimeout bounds the manifest publish when the caller's
// context expired during chunk distribution. The manifest must still go
// out with whatever relay hints were confirmed, or the chunks already
// published can never be located.
const manifestGraceTimeout = 30 * time.Second

// DeliveryStatus classifies the outcome of a send.
type DeliveryStatus string

const (
	// StatusSent means every event of the report was confirmed.
	StatusSent DeliveryStatus = "sent"
	// StatusPartiallySent means the report went out but some chunks were
	// lost on every relay. The manifest names every chunk attempted, so
	// the recipient can see what is missing.
	StatusPartiallySent DeliveryStatus = "partially_sent"
)

// DeliveryOutcome reports the result of a successful or partially
// successful send. Fatal failures are returned as errors instead.
type DeliveryOutcome struct {
	// Status is Sent or PartiallySent.
	Status DeliveryStatus
	// WrapID is the event id of the published gift wrap (the direct crash
	// wrap or the manifest wrap).
	WrapID string
	// ChunkCount is the number of chunks the payload split into; zero for
	// direct delivery.
	ChunkCount int
	// LostChunks holds indices of chunks that exhausted every relay.
	LostChunks []int
	// ChunkRelays maps confirmed chunk event ids to the relays that
	// verified them.
	ChunkRelays map[string][]string
}

// Send delivers an opaque payload to the recipient. Payloads at or below
// the direct size threshold travel inside a single gift wrap; larger
// payloads are split into public convergently encrypted chunks plus a
// gift-wrapped manifest.
//
// Per-chunk failures are absorbed into the outcome and never abort the
// send; envelope construction failures and a manifest that no relay
// accepts are fatal and returned as errors.
func (c *Client) Send(ctx context.Context, payload []byte, opts ...SendOption) (*DeliveryOutcome, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	cfg := &sendConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	engine := c.newEngine(cfg.onProgress)

	if len(payload) <= event.DirectSizeThreshold {
		return c.sendDirect(ctx, engine, payload)
	}
	return c.sendChunked(ctx, engine, cfg, payload)
}

// sendDirect wraps the payload as a direct crash rumor and publishes one
// gift wrap through the single-target path.
func (c *Client) sendDirect(ctx context.Context, engine *distribute.Engine, payload []byte) (*DeliveryOutcome, error) {
	content, err := directContent(payload)
	if err != nil {
		return nil, err
	}

	wrap, err := c.wrapRumor(event.KindDirectCrash, content)
	if err != nil {
		return nil, err
	}

	if err := engine.PublishWrap(ctx, wrap); err != nil {
		return nil, wrapError(err)
	}

	return &DeliveryOutcome{
		Status: StatusSent,
		WrapID: wrap.ID,
	}, nil
}

// sendChunked splits the payload, publishes chunk events through the
// multi-relay loop, then publishes the manifest through the single-target
// path.
func (c *Client) sendChunked(ctx context.Context, engine *distribute.Engine, cfg *sendConfig, payload []byte) (*DeliveryOutcome, error) {
	split, err := chunk.Split(payload, c.cfg.chunkSize)
	if err != nil {
		return nil, &EncryptionError{Stage: "chunk", Err: err}
	}

	chunkEvents, err := c.buildChunkEvents(split)
	if err != nil {
		return nil, err
	}

	result := engine.PublishChunks(ctx, chunkEvents)

	manifest := buildManifest(split, chunkEvents, result)
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, err
	}

	wrap, err := c.wrapRumor(event.KindManifest, string(manifestJSON))
	if err != nil {
		return nil, err
	}

	// Graceful degradation: if the caller's deadline expired mid-loop, the
	// manifest still goes out under a short grace window with the hints
	// confirmed so far.
	manifestCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		manifestCtx, cancel = context.WithTimeout(context.Background(), manifestGraceTimeout)
		defer cancel()
	}

	if err := engine.PublishWrap(manifestCtx, wrap); err != nil {
		return nil, &ManifestPublishError{Err: err}
	}

	status := StatusSent
	if len(result.Lost) > 0 {
		status = StatusPartiallySent
	}

	return &DeliveryOutcome{
		Status:      status,
		WrapID:      wrap.ID,
		ChunkCount:  len(chunkEvents),
		LostChunks:  result.Lost,
		ChunkRelays: result.Confirmed,
	}, nil
}

// buildChunkEvents signs one public chunk event per record, each under its
// own single-use identity so chunk events carry no sender attribution.
func (c *Client) buildChunkEvents(split *chunk.Result) ([]*event.Event, error) {
	events := make([]*event.Event, 0, len(split.Chunks))
	for _, record := range split.Chunks {
		payload := event.ChunkPayload{
			V:     event.PayloadVersion,
			Index: record.Index,
			Hash:  hex.EncodeToString(record.Hash),
			Data:  crypto.ToBase64(record.Ciphertext),
		}
		content, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		signer, err := crypto.GenerateIdentity(c.cfg.entropy)
		if err != nil {
			return nil, &SigningError{Err: err}
		}

		ev := &event.Event{
			CreatedAt: c.cfg.clock().Unix(),
			Kind:      event.KindChunk,
			Tags:      [][]string{},
			Content:   string(content),
		}
		if err := ev.Sign(signer); err != nil {
			return nil, &SigningError{Err: err}
		}
		events = append(events, ev)
	}
	return events, nil
}

// buildManifest assembles the manifest payload. It names every chunk id
// attempted, in ascending index order, and carries relay hints only for
// chunks that were confirmed.
func buildManifest(split *chunk.Result, chunkEvents []*event.Event, result *distribute.ChunkOutcome) *event.ManifestPayload {
	ids := make([]string, len(chunkEvents))
	for i, ev := range chunkEvents {
		ids[i] = ev.ID
	}

	manifest := &event.ManifestPayload{
		V:          event.PayloadVersion,
		RootHash:   hex.EncodeToString(split.RootHash),
		TotalSize:  split.TotalSize,
		ChunkCount: len(chunkEvents),
		ChunkIDs:   ids,
	}
	if len(result.Confirmed) > 0 {
		manifest.ChunkRelays = result.Confirmed
	}
	return manifest
}

// wrapRumor builds a rumor of the given kind, seals it to the recipient,
// and wraps it for a single-use identity.
func (c *Client) wrapRumor(kind int, content string) (*event.Event, error) {
	now := c.cfg.clock()

	rumor, err := event.BuildRumor(kind, nil, content, now, c.sender)
	if err != nil {
		return nil, err
	}

	opts := event.WrapOptions{}
	if c.cfg.expiration > 0 {
		opts.Expiration = now.Add(c.cfg.expiration).Unix()
	}

	env, err := event.SealAndWrap(rumor, c.sender, c.recipient, opts, now, c.cfg.entropy)
	if err != nil {
		return nil, wrapEnvelopeError(err)
	}
	return env.Wrap, nil
}

// newEngine builds the distribution engine for one send. The endpoint
// ring is the client's, so rate-limit windows carry across sends.
func (c *Client) newEngine(onProgress ProgressFunc) *distribute.Engine {
	return distribute.New(distribute.Config{
		Endpoints:         c.endpoints,
		RateLimitInterval: c.cfg.rateLimit,
		SettleDelay:       c.cfg.settleDelay,
		Clock:             c.cfg.clock,
		OnProgress:        onProgress,
	})
}

// directContent normalizes a payload into the direct crash content format
// {v, crash}. Non-JSON payloads are carried as a JSON string.
func directContent(payload []byte) (string, error) {
	crash := json.RawMessage(payload)
	if !json.Valid(payload) {
		quoted, err := json.Marshal(string(payload))
		if err != nil {
			return "", err
		}
		crash = quoted
	}
	content, err := json.Marshal(event.DirectPayload{
		V:     event.PayloadVersion,
		Crash: crash,
	})
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// wrapEnvelopeError classifies a SealAndWrap failure.
func wrapEnvelopeError(err error) error {
	if err == nil {
		return nil
	}
	mapped := wrapError(err)
	if mapped != err {
		return mapped
	}
	return &EncryptionError{Stage: "wrap", Err: err}
}
