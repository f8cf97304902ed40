// Package feed implements the live analysis event feed: one WebSocket
// connection per incident, carrying one JSON-encoded AgentEvent per text
// frame. The feed parses inbound frames into the session's bounded buffer
// and reports connection health; it never reconnects on its own — that
// policy belongs to the owning session.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/oncallops/incidentwatch/internal/events"
)

// State is the feed connection state. Disconnected is terminal for a
// connection instance: getting back to connected requires a new Connect.
type State string

const (
	// StateConnecting means a dial is in progress
	StateConnecting State = "connecting"
	// StateConnected means the connection is open and reading
	StateConnected State = "connected"
	// StateDisconnected means no connection (never connected, closed, or failed)
	StateDisconnected State = "disconnected"
)

// Feed manages one live event connection per incident.
type Feed struct {
	baseURL string
	dialer  *websocket.Dialer
	buffer  *events.Buffer
	log     *logrus.Logger

	// onState and onEvent are wired once, before Connect
	onState func(State)
	onEvent func(*events.AgentEvent)

	mu    sync.Mutex
	state State
	conn  *websocket.Conn
	done  chan struct{}
}

// New creates a feed for the given base address (ws:// or wss://).
// Inbound events land in buffer with FIFO eviction.
func New(baseURL string, buffer *events.Buffer, log *logrus.Logger) *Feed {
	if log == nil {
		log = logrus.New()
	}
	return &Feed{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		buffer: buffer,
		log:    log,
		state:  StateDisconnected,
	}
}

// OnStateChange registers a callback for connection state transitions.
// Must be called before Connect.
func (f *Feed) OnStateChange(fn func(State)) {
	f.onState = fn
}

// OnEvent registers a callback invoked after each event is buffered.
// Must be called before Connect.
func (f *Feed) OnEvent(fn func(*events.AgentEvent)) {
	f.onEvent = fn
}

// State returns the current connection state.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Connect opens the live connection for the incident and starts reading.
// Connecting while already connected is a no-op.
func (f *Feed) Connect(ctx context.Context, incidentID string) error {
	f.mu.Lock()
	if f.conn != nil {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	f.setState(StateConnecting)

	url := fmt.Sprintf("%s/incidents/%s/events", f.baseURL, incidentID)
	conn, resp, err := f.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		f.setState(StateDisconnected)
		return fmt.Errorf("connecting event feed: %w", err)
	}

	done := make(chan struct{})
	f.mu.Lock()
	f.conn = conn
	f.done = done
	f.mu.Unlock()

	f.setState(StateConnected)
	f.log.WithField("incident", incidentID).Debug("Event feed connected")

	go f.readLoop(conn, done, incidentID)
	return nil
}

// Disconnect closes the live connection and waits for the read loop to
// exit, so no event can land in the buffer after Disconnect returns.
// Idempotent: safe to call when never connected or already disconnected.
func (f *Feed) Disconnect() {
	f.mu.Lock()
	conn := f.conn
	done := f.done
	f.conn = nil
	f.done = nil
	f.mu.Unlock()

	if conn == nil {
		f.setState(StateDisconnected)
		return
	}

	conn.Close()
	<-done
	f.setState(StateDisconnected)
}

// readLoop reads frames until the connection dies or is closed locally.
func (f *Feed) readLoop(conn *websocket.Conn, done chan struct{}, incidentID string) {
	defer close(done)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			// Remote close, network error, or local Disconnect. Either way
			// this connection instance is finished.
			f.mu.Lock()
			locallyClosed := f.conn != conn
			if !locallyClosed {
				f.conn = nil
				f.done = nil
			}
			f.mu.Unlock()

			if !locallyClosed {
				f.log.WithError(err).WithField("incident", incidentID).Warn("Event feed disconnected")
				conn.Close()
				f.setState(StateDisconnected)
			}
			return
		}

		event, perr := events.ParseFrame(message, time.Now())
		if perr != nil {
			// Malformed frames are dropped; the buffer and the connection
			// state stay untouched.
			f.log.WithError(perr).WithField("incident", incidentID).Warn("Dropping malformed feed frame")
			continue
		}

		f.buffer.Append(event)
		if f.onEvent != nil {
			f.onEvent(event)
		}
	}
}

func (f *Feed) setState(s State) {
	f.mu.Lock()
	if f.state == s {
		f.mu.Unlock()
		return
	}
	f.state = s
	f.mu.Unlock()

	if f.onState != nil {
		f.onState(s)
	}
}
