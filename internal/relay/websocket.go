package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bugstr/client-go/internal/event"
)

// defaultMessageTimeout bounds a single websocket exchange when the caller
// context carries no deadline.
const defaultMessageTimeout = 15 * time.Second

// Websocket is a Relay over the standard relay websocket protocol. A
// connection is dialed per operation and closed when the operation
// completes; crash reporting publishes a handful of events per relay, so
// connection reuse buys nothing over predictability here.
type Websocket struct {
	url    string
	dialer *websocket.Dialer
}

// NewWebsocket creates a websocket relay client for the given url
// (ws:// or wss://).
func NewWebsocket(url string) *Websocket {
	return &Websocket{
		url:    url,
		dialer: websocket.DefaultDialer,
	}
}

// URL returns the relay endpoint url.
func (w *Websocket) URL() string {
	return w.url
}

// Publish submits an event and waits for the relay's acknowledgement.
func (w *Websocket) Publish(ctx context.Context, ev *event.Event) error {
	conn, err := w.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON([]interface{}{"EVENT", ev}); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConnection, w.url, err)
	}

	// Read until the OK acknowledgement for this event arrives; relays may
	// interleave unrelated messages.
	for {
		var msg []json.RawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrConnection, w.url, err)
		}
		if len(msg) < 3 || decodeString(msg[0]) != "OK" {
			continue
		}
		if decodeString(msg[1]) != ev.ID {
			continue
		}

		var accepted bool
		if err := json.Unmarshal(msg[2], &accepted); err != nil || !accepted {
			reason := ""
			if len(msg) > 3 {
				reason = decodeString(msg[3])
			}
			return fmt.Errorf("%w: %s: %s", ErrRejected, w.url, reason)
		}
		return nil
	}
}

// HasEvent queries the relay for an event by id and kind.
func (w *Websocket) HasEvent(ctx context.Context, id string, kind int) (bool, error) {
	conn, err := w.dial(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	subID := "verify-" + id[:16]
	filter := map[string]interface{}{
		"ids":   []string{id},
		"kinds": []int{kind},
	}
	if err := conn.WriteJSON([]interface{}{"REQ", subID, filter}); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrConnection, w.url, err)
	}

	found := false
	for {
		var msg []json.RawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return false, fmt.Errorf("%w: %s: %v", ErrConnection, w.url, err)
		}
		if len(msg) < 2 {
			continue
		}
		switch decodeString(msg[0]) {
		case "EVENT":
			if len(msg) >= 3 {
				var ev event.Event
				if err := json.Unmarshal(msg[2], &ev); err == nil && ev.ID == id {
					found = true
				}
			}
		case "EOSE":
			_ = conn.WriteJSON([]interface{}{"CLOSE", subID})
			return found, nil
		}
	}
}

// dial opens a connection and applies the caller's deadline to all reads
// and writes on it.
func (w *Websocket) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnection, w.url, err)
	}

	deadline := time.Now().Add(defaultMessageTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)

	return conn, nil
}

func decodeString(raw json.RawMessage) string {
	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}
