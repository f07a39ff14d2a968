package distribute

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bugstr/client-go/internal/event"
	"github.com/bugstr/client-go/internal/relay"
)

// Default engine timing. Both are tunable so the reliability bound can be
// validated by test against scaled-down intervals.
const (
	// DefaultRateLimitInterval is the minimum spacing between two
	// publishes to the same relay.
	DefaultRateLimitInterval = 7500 * time.Millisecond
	// DefaultSettleDelay is the pause between publishing an event and
	// querying the relay to verify it was stored.
	DefaultSettleDelay = 2 * time.Second
)

// ErrAllRelaysFailed is returned when a single-target publish was rejected
// by every configured relay.
var ErrAllRelaysFailed = errors.New("all relays failed")

// Endpoint is a relay plus its rate-limit bookkeeping. One endpoint ring
// is shared by every send a client performs, including concurrent
// background sends, so the publish timestamp is mutex-guarded and
// survives across engines.
type Endpoint struct {
	// Relay is the publish/query capability for this endpoint.
	Relay relay.Relay
	// RateLimitInterval overrides the engine default when nonzero.
	RateLimitInterval time.Duration

	mu          sync.Mutex
	lastPublish time.Time
}

// waitTurn blocks until the endpoint's rate-limit window has elapsed,
// then reserves the next publish slot. Concurrent publishers to the same
// endpoint serialize here.
func (ep *Endpoint) waitTurn(ctx context.Context, clock func() time.Time, interval time.Duration) error {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !ep.lastPublish.IsZero() {
		if wait := interval - clock().Sub(ep.lastPublish); wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	ep.lastPublish = clock()
	return nil
}

// Config configures a distribution engine.
type Config struct {
	// Endpoints are the relays in ring order.
	Endpoints []*Endpoint
	// RateLimitInterval is the default per-relay publish spacing.
	// Zero selects DefaultRateLimitInterval.
	RateLimitInterval time.Duration
	// SettleDelay is the publish-to-verify pause.
	// Zero selects DefaultSettleDelay.
	SettleDelay time.Duration
	// Clock supplies the current time. Nil selects time.Now.
	Clock func() time.Time
	// OnProgress, if set, receives progress snapshots.
	OnProgress ProgressFunc
}

// Engine drives the publish/verify/retry loop across a relay ring.
//
// A single logical task runs a delivery sequentially: one chunk's cycle
// completes (or exhausts all relays) before the next chunk begins.
// Throughput across relays comes from round-robin target rotation, not
// parallelism: each relay's rate limit is the bottleneck, and rotating
// targets lets relayCount chunks proceed within one rate-limit window
// without any single relay seeing more than one post per window.
//
// Engines are cheap and per-delivery; the endpoint ring is the durable
// state and may be shared by several engines at once.
type Engine struct {
	endpoints  []*Endpoint
	rateLimit  time.Duration
	settle     time.Duration
	clock      func() time.Time
	onProgress ProgressFunc
}

// New creates an engine from the given configuration.
func New(cfg Config) *Engine {
	e := &Engine{
		endpoints:  cfg.Endpoints,
		rateLimit:  cfg.RateLimitInterval,
		settle:     cfg.SettleDelay,
		clock:      cfg.Clock,
		onProgress: cfg.OnProgress,
	}
	if e.rateLimit <= 0 {
		e.rateLimit = DefaultRateLimitInterval
	}
	if e.settle <= 0 {
		e.settle = DefaultSettleDelay
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	return e
}

// RelayCount returns the number of relays in the ring (R in the
// reliability model).
func (e *Engine) RelayCount() int {
	return len(e.endpoints)
}

// ChunkOutcome reports how a chunk set fared. Per-chunk failures are
// absorbed here and never abort the delivery.
type ChunkOutcome struct {
	// Confirmed maps chunk event ids to the relay urls that verified them.
	Confirmed map[string][]string
	// Lost holds the indices of chunks for which every relay failed.
	Lost []int
}

// PublishChunks publishes chunk events in ascending index order, verifying
// each on its target relay and rotating to the next relay on failure.
//
// Chunks are assigned relays round-robin by index; a failed publish or
// verification advances to the next relay in the ring, up to one attempt
// per relay. A chunk whose attempts are all exhausted is recorded as lost
// and processing continues. Context expiry stops further attempts but
// still returns the confirmations gathered so far, so the manifest step
// can proceed with partial relay hints.
func (e *Engine) PublishChunks(ctx context.Context, chunks []*event.Event) *ChunkOutcome {
	outcome := &ChunkOutcome{Confirmed: make(map[string][]string)}
	if len(e.endpoints) == 0 {
		for i := range chunks {
			outcome.Lost = append(outcome.Lost, i)
		}
		return outcome
	}

	e.emit(Progress{
		Phase:       PhasePreparing,
		TotalUnits:  len(chunks),
		ETASeconds:  e.etaSeconds(len(chunks)),
		Description: fmt.Sprintf("preparing %d chunks", len(chunks)),
	})

	for i, chunk := range chunks {
		if ctx.Err() != nil {
			outcome.Lost = append(outcome.Lost, i)
			continue
		}

		confirmedOn, ok := e.publishChunk(ctx, i, chunk)
		if ok {
			outcome.Confirmed[chunk.ID] = []string{confirmedOn}
		} else {
			outcome.Lost = append(outcome.Lost, i)
		}

		done := i + 1
		e.emit(Progress{
			Phase:             PhaseUploading,
			CurrentUnit:       done,
			TotalUnits:        len(chunks),
			FractionCompleted: float64(done) / float64(len(chunks)+1),
			ETASeconds:        e.etaSeconds(len(chunks) - done),
			Description:       fmt.Sprintf("uploaded chunk %d/%d", done, len(chunks)),
		})
	}

	return outcome
}

// publishChunk runs one chunk's publish/verify/retry cycle. It returns the
// url of the relay that confirmed the chunk, or ok=false when every relay
// was tried without a confirmed publish.
func (e *Engine) publishChunk(ctx context.Context, index int, chunk *event.Event) (url string, ok bool) {
	for attempt := 0; attempt < len(e.endpoints); attempt++ {
		if ctx.Err() != nil {
			return "", false
		}

		ep := e.endpoints[(index+attempt)%len(e.endpoints)]

		if err := e.waitRateLimit(ctx, ep); err != nil {
			return "", false
		}

		if err := ep.Relay.Publish(ctx, chunk); err != nil {
			continue
		}

		if err := sleep(ctx, e.settle); err != nil {
			return "", false
		}

		found, err := ep.Relay.HasEvent(ctx, chunk.ID, chunk.Kind)
		if err != nil || !found {
			continue
		}
		return ep.Relay.URL(), true
	}
	return "", false
}

// PublishWrap publishes a gift wrap through the single-target path: relays
// are tried in ring order until one accepts. Used for direct crash wraps
// and for manifests.
func (e *Engine) PublishWrap(ctx context.Context, wrap *event.Event) error {
	if len(e.endpoints) == 0 {
		return ErrAllRelaysFailed
	}

	e.emit(Progress{
		Phase:             PhaseFinalizing,
		TotalUnits:        1,
		FractionCompleted: 0.99,
		Description:       "publishing envelope",
	})

	var lastErr error
	for _, ep := range e.endpoints {
		if err := e.waitRateLimit(ctx, ep); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}

		if err := ep.Relay.Publish(ctx, wrap); err != nil {
			lastErr = err
			continue
		}

		e.emit(Progress{
			Phase:             PhaseFinalizing,
			CurrentUnit:       1,
			TotalUnits:        1,
			FractionCompleted: 1,
			Description:       "delivery complete",
		})
		return nil
	}

	if lastErr == nil {
		lastErr = ErrAllRelaysFailed
	}
	return lastErr
}

// waitRateLimit resolves the endpoint's effective interval and waits for
// its next publish slot.
func (e *Engine) waitRateLimit(ctx context.Context, ep *Endpoint) error {
	interval := ep.RateLimitInterval
	if interval <= 0 {
		interval = e.rateLimit
	}
	return ep.waitTurn(ctx, e.clock, interval)
}

// etaSeconds estimates the remaining upload time. With round-robin target
// rotation, relayCount chunks proceed within one rate-limit window.
func (e *Engine) etaSeconds(remaining int) float64 {
	if remaining <= 0 || len(e.endpoints) == 0 {
		return 0
	}
	perChunk := e.rateLimit.Seconds() / float64(len(e.endpoints))
	return float64(remaining) * perChunk
}

func (e *Engine) emit(p Progress) {
	if e.onProgress != nil {
		e.onProgress(p)
	}
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
