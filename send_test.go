package bugstr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bugstr/client-go/internal/event"
)

// fakeRelay is an in-memory Relay used across the client tests.
type fakeRelay struct {
	url string

	mu           sync.Mutex
	events       []*event.Event
	publishTimes []time.Time
	failPublish  bool
	failVerify   bool
}

func (f *fakeRelay) URL() string { return f.url }

func (f *fakeRelay) Publish(_ context.Context, ev *event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishTimes = append(f.publishTimes, time.Now())
	if f.failPublish {
		return errors.New("publish refused")
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeRelay) times() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time{}, f.publishTimes...)
}

func (f *fakeRelay) HasEvent(_ context.Context, id string, kind int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failVerify {
		return false, nil
	}
	for _, ev := range f.events {
		if ev.ID == id && ev.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRelay) byKind(kind int) []*event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*event.Event
	for _, ev := range f.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func testRelays(n int) []*fakeRelay {
	relays := make([]*fakeRelay, n)
	for i := range relays {
		relays[i] = &fakeRelay{url: "wss://relay" + string(rune('0'+i))}
	}
	return relays
}

func asRelayOption(relays []*fakeRelay) Option {
	rs := make([]Relay, len(relays))
	for i, r := range relays {
		rs[i] = r
	}
	return WithRelayClients(rs...)
}

// testRecipient is a fixed recipient identity for tests.
func testRecipient(t *testing.T) *IdentityKeys {
	t.Helper()
	keys, err := GenerateIdentity(bytes.NewReader(bytes.Repeat([]byte{0x11}, 32)))
	if err != nil {
		t.Fatalf("GenerateIdentity() error = %v", err)
	}
	return keys
}

func newTestClient(t *testing.T, relays []*fakeRelay, opts ...Option) (*Client, *IdentityKeys) {
	t.Helper()
	keys := testRecipient(t)
	base := []Option{
		asRelayOption(relays),
		WithRateLimitInterval(time.Millisecond),
		WithSettleDelay(time.Millisecond),
	}
	client, err := New(keys.PublicHex, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client, keys
}

// wrapsAcrossRelays collects all gift wrap events published anywhere.
func wrapsAcrossRelays(relays []*fakeRelay) []*event.Event {
	var wraps []*event.Event
	for _, r := range relays {
		wraps = append(wraps, r.byKind(event.KindGiftWrap)...)
	}
	return wraps
}

func TestSend_EmptyPayload(t *testing.T) {
	client, _ := newTestClient(t, testRelays(1))
	if _, err := client.Send(context.Background(), nil); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Send(nil) error = %v, want ErrEmptyPayload", err)
	}
}

func TestSend_Direct(t *testing.T) {
	relays := testRelays(2)
	client, keys := newTestClient(t, relays)

	payload := []byte(`{"message":"index out of range","stack":"main.go:42"}`)
	outcome, err := client.Send(context.Background(), payload)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if outcome.Status != StatusSent {
		t.Errorf("status = %s, want %s", outcome.Status, StatusSent)
	}
	if outcome.ChunkCount != 0 {
		t.Errorf("chunk count = %d, want 0 for direct delivery", outcome.ChunkCount)
	}

	wraps := wrapsAcrossRelays(relays)
	if len(wraps) != 1 {
		t.Fatalf("published %d gift wraps, want 1", len(wraps))
	}
	wrap := wraps[0]
	if wrap.ID != outcome.WrapID {
		t.Error("outcome wrap id does not match the published wrap")
	}
	if got := wrap.TagValue("p"); got != keys.PublicHex {
		t.Errorf("wrap p tag = %q, want recipient pubkey", got)
	}
	if wrap.TagValue("expiration") == "" {
		t.Error("wrap is missing the expiration tag")
	}

	wrapJSON, err := wrap.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	report, err := Open(wrapJSON, keys.SeedHex)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if report.Kind != event.KindDirectCrash {
		t.Errorf("report kind = %d, want %d", report.Kind, event.KindDirectCrash)
	}
	if report.SenderPubkey != client.SenderPubkey() {
		t.Error("report sender does not match the client's sender identity")
	}

	var direct event.DirectPayload
	if err := json.Unmarshal([]byte(report.Content), &direct); err != nil {
		t.Fatalf("parse direct payload: %v", err)
	}
	if !bytes.Equal(direct.Crash, payload) {
		t.Error("recovered crash payload does not match the original")
	}
}

func TestSend_ThresholdBoundary(t *testing.T) {
	t.Run("at threshold stays direct", func(t *testing.T) {
		relays := testRelays(1)
		client, _ := newTestClient(t, relays)

		outcome, err := client.Send(context.Background(), bytes.Repeat([]byte("A"), event.DirectSizeThreshold))
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if outcome.ChunkCount != 0 {
			t.Errorf("chunk count = %d, want direct delivery", outcome.ChunkCount)
		}
		if got := len(relays[0].byKind(event.KindChunk)); got != 0 {
			t.Errorf("published %d chunk events, want 0", got)
		}
	})

	t.Run("one byte over goes chunked", func(t *testing.T) {
		relays := testRelays(1)
		client, _ := newTestClient(t, relays)

		outcome, err := client.Send(context.Background(), bytes.Repeat([]byte("A"), event.DirectSizeThreshold+1))
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if outcome.ChunkCount != 2 {
			t.Errorf("chunk count = %d, want 2", outcome.ChunkCount)
		}
		if got := len(relays[0].byKind(event.KindChunk)); got != 2 {
			t.Errorf("published %d chunk events, want 2", got)
		}
	})
}

func TestSend_ChunkedRoundTrip(t *testing.T) {
	relays := testRelays(3)
	client, keys := newTestClient(t, relays, WithChunkSize(48000))

	payload := bytes.Repeat([]byte("A"), 60000)
	outcome, err := client.Send(context.Background(), payload)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if outcome.Status != StatusSent {
		t.Errorf("status = %s, want %s", outcome.Status, StatusSent)
	}
	if outcome.ChunkCount != 2 {
		t.Fatalf("chunk count = %d, want 2", outcome.ChunkCount)
	}
	if len(outcome.LostChunks) != 0 {
		t.Errorf("lost chunks = %v, want none", outcome.LostChunks)
	}

	// Round-robin assignment: chunk 0 on the first relay, chunk 1 on the
	// second, nothing on the third.
	for i, want := range []int{1, 1, 0} {
		if got := len(relays[i].byKind(event.KindChunk)); got != want {
			t.Errorf("relay %d holds %d chunk events, want %d", i, got, want)
		}
	}

	wraps := wrapsAcrossRelays(relays)
	if len(wraps) != 1 {
		t.Fatalf("published %d gift wraps, want 1", len(wraps))
	}
	wrapJSON, err := wraps[0].Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	report, err := Open(wrapJSON, keys.SeedHex)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if report.Kind != event.KindManifest {
		t.Fatalf("report kind = %d, want %d", report.Kind, event.KindManifest)
	}

	manifest, err := event.ParseManifestPayload(report.Content)
	if err != nil {
		t.Fatalf("ParseManifestPayload() error = %v", err)
	}
	if manifest.ChunkCount != 2 {
		t.Errorf("manifest chunk count = %d, want 2", manifest.ChunkCount)
	}
	if manifest.TotalSize != uint64(len(payload)) {
		t.Errorf("manifest total size = %d, want %d", manifest.TotalSize, len(payload))
	}
	if len(manifest.ChunkIDs) != 2 {
		t.Fatalf("manifest names %d chunk ids, want 2", len(manifest.ChunkIDs))
	}
	for id := range outcome.ChunkRelays {
		found := false
		for _, listed := range manifest.ChunkIDs {
			if listed == id {
				found = true
			}
		}
		if !found {
			t.Errorf("confirmed chunk %s missing from the manifest", id)
		}
	}

	var chunkContents []string
	for _, r := range relays {
		for _, ev := range r.byKind(event.KindChunk) {
			chunkContents = append(chunkContents, ev.Content)
		}
	}
	got, err := AssembleChunked(report.Content, chunkContents)
	if err != nil {
		t.Fatalf("AssembleChunked() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("reassembled payload does not match the original")
	}
}

func TestSend_FailingVerifyRelayExcludedFromHints(t *testing.T) {
	relays := testRelays(2)
	relays[0].failVerify = true
	client, _ := newTestClient(t, relays, WithChunkSize(30000))

	payload := bytes.Repeat([]byte("B"), 60000)
	outcome, err := client.Send(context.Background(), payload)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if outcome.Status != StatusSent {
		t.Errorf("status = %s, want %s", outcome.Status, StatusSent)
	}
	if len(outcome.LostChunks) != 0 {
		t.Errorf("lost chunks = %v, want none", outcome.LostChunks)
	}
	for id, urls := range outcome.ChunkRelays {
		for _, url := range urls {
			if url == relays[0].url {
				t.Errorf("chunk %s lists the relay that never verified", id)
			}
		}
	}
}

func TestSend_PartialDelivery(t *testing.T) {
	relays := testRelays(2)
	relays[0].failVerify = true
	relays[1].failVerify = true
	client, keys := newTestClient(t, relays, WithChunkSize(30000))

	payload := bytes.Repeat([]byte("C"), 60000)
	outcome, err := client.Send(context.Background(), payload)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if outcome.Status != StatusPartiallySent {
		t.Errorf("status = %s, want %s", outcome.Status, StatusPartiallySent)
	}
	if len(outcome.LostChunks) != 2 {
		t.Errorf("lost chunks = %v, want both", outcome.LostChunks)
	}
	if len(outcome.ChunkRelays) != 0 {
		t.Errorf("chunk relays = %v, want none", outcome.ChunkRelays)
	}

	// The manifest still goes out and still names every chunk attempted, so
	// the recipient can see what is missing.
	wraps := wrapsAcrossRelays(relays)
	if len(wraps) != 1 {
		t.Fatalf("published %d gift wraps, want 1", len(wraps))
	}
	wrapJSON, _ := wraps[0].Marshal()
	report, err := Open(wrapJSON, keys.SeedHex)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	manifest, err := event.ParseManifestPayload(report.Content)
	if err != nil {
		t.Fatalf("ParseManifestPayload() error = %v", err)
	}
	if len(manifest.ChunkIDs) != 2 {
		t.Errorf("manifest names %d chunk ids, want 2", len(manifest.ChunkIDs))
	}
	if len(manifest.ChunkRelays) != 0 {
		t.Errorf("manifest relay hints = %v, want none", manifest.ChunkRelays)
	}
}

func TestSend_ManifestRejectedIsFatal(t *testing.T) {
	relays := testRelays(2)
	relays[0].failPublish = true
	relays[1].failPublish = true
	client, _ := newTestClient(t, relays, WithChunkSize(30000))

	_, err := client.Send(context.Background(), bytes.Repeat([]byte("D"), 60000))
	if !errors.Is(err, ErrManifestPublish) {
		t.Errorf("Send() error = %v, want ErrManifestPublish", err)
	}
}

func TestSend_ExpiredContextStillPublishesManifest(t *testing.T) {
	relays := testRelays(2)
	client, keys := newTestClient(t, relays, WithChunkSize(30000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := client.Send(ctx, bytes.Repeat([]byte("E"), 60000))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if outcome.Status != StatusPartiallySent {
		t.Errorf("status = %s, want %s", outcome.Status, StatusPartiallySent)
	}
	if len(outcome.LostChunks) != 2 {
		t.Errorf("lost chunks = %v, want both", outcome.LostChunks)
	}

	wraps := wrapsAcrossRelays(relays)
	if len(wraps) != 1 {
		t.Fatalf("published %d gift wraps, want 1", len(wraps))
	}
	if _, err := Open(mustMarshal(t, wraps[0]), keys.SeedHex); err != nil {
		t.Errorf("Open() error = %v", err)
	}
}

func TestSend_RateLimitPersistsAcrossSends(t *testing.T) {
	relays := testRelays(1)
	client, _ := newTestClient(t, relays, WithRateLimitInterval(100*time.Millisecond))

	payload := []byte(`{"message":"same client, twice"}`)
	for i := 0; i < 2; i++ {
		if _, err := client.Send(context.Background(), payload); err != nil {
			t.Fatalf("Send() #%d error = %v", i+1, err)
		}
	}

	times := relays[0].times()
	if len(times) != 2 {
		t.Fatalf("relay saw %d publishes, want 2", len(times))
	}
	if gap := times[1].Sub(times[0]); gap < 100*time.Millisecond {
		t.Errorf("publishes across sends only %v apart, want >= 100ms", gap)
	}
}

func TestSend_Progress(t *testing.T) {
	relays := testRelays(2)
	client, _ := newTestClient(t, relays, WithChunkSize(30000))

	var phases []string
	outcome, err := client.Send(context.Background(), bytes.Repeat([]byte("F"), 60000),
		WithProgress(func(p Progress) {
			phases = append(phases, string(p.Phase))
		}))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if outcome.ChunkCount != 2 {
		t.Fatalf("chunk count = %d, want 2", outcome.ChunkCount)
	}

	want := []string{"preparing", "uploading", "uploading", "finalizing", "finalizing"}
	if len(phases) != len(want) {
		t.Fatalf("progress phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase %d = %s, want %s", i, phases[i], want[i])
		}
	}
}

func mustMarshal(t *testing.T, ev *event.Event) []byte {
	t.Helper()
	data, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return data
}
