package feed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncallops/incidentwatch/internal/events"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// feedServer is an httptest WebSocket server that frames whatever the test
// scripts through its send channel, then optionally closes.
type feedServer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    []*websocket.Conn
	gotPaths []string
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	fs := &feedServer{}
	fs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.gotPaths = append(fs.gotPaths, r.URL.Path)
		fs.mu.Unlock()

		conn, err := fs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.mu.Lock()
		fs.conns = append(fs.conns, conn)
		fs.mu.Unlock()

		// Drain client frames until the connection dies.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *feedServer) wsURL() string {
	return "ws" + strings.TrimPrefix(fs.server.URL, "http")
}

func (fs *feedServer) send(t *testing.T, frame string) {
	t.Helper()
	conn := fs.waitForConn(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (fs *feedServer) closeConn(t *testing.T) {
	t.Helper()
	fs.waitForConn(t).Close()
}

func (fs *feedServer) waitForConn(t *testing.T) *websocket.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		fs.mu.Lock()
		if len(fs.conns) > 0 {
			conn := fs.conns[len(fs.conns)-1]
			fs.mu.Unlock()
			return conn
		}
		fs.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no websocket connection established")
	return nil
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestFeedConnectAndBufferEvents(t *testing.T) {
	fs := newFeedServer(t)
	buffer := events.NewBuffer(10)
	f := New(fs.wsURL(), buffer, testLogger())

	var states []State
	var stateMu sync.Mutex
	f.OnStateChange(func(s State) {
		stateMu.Lock()
		states = append(states, s)
		stateMu.Unlock()
	})

	require.NoError(t, f.Connect(context.Background(), "inc-5"))
	defer f.Disconnect()

	assert.Equal(t, StateConnected, f.State())

	fs.send(t, `{"type":"plan_created","message":"3-step investigation plan"}`)
	fs.send(t, `{"type":"agent_action","agent":"metrics-reader","message":"querying p99"}`)

	waitFor(t, func() bool { return buffer.Len() == 2 }, "events not buffered")

	buffered := buffer.Events()
	assert.Equal(t, events.EventTypePlanCreated, buffered[0].Type)
	assert.Equal(t, events.EventTypeAgentAction, buffered[1].Type)
	assert.Equal(t, "metrics-reader", buffered[1].Agent)

	fs.mu.Lock()
	paths := fs.gotPaths
	fs.mu.Unlock()
	require.Len(t, paths, 1)
	assert.Equal(t, "/incidents/inc-5/events", paths[0], "feed URL derived from base address")

	stateMu.Lock()
	defer stateMu.Unlock()
	assert.Equal(t, []State{StateConnecting, StateConnected}, states)
}

func TestFeedStampsMissingTimestamp(t *testing.T) {
	fs := newFeedServer(t)
	buffer := events.NewBuffer(10)
	f := New(fs.wsURL(), buffer, testLogger())

	before := time.Now()
	require.NoError(t, f.Connect(context.Background(), "inc-1"))
	defer f.Disconnect()

	fs.send(t, `{"type":"plan_step_completed","step_number":2}`)
	waitFor(t, func() bool { return buffer.Len() == 1 }, "event not buffered")

	event := buffer.Events()[0]
	assert.Equal(t, 2, event.StepNumber)
	assert.False(t, event.Timestamp.Before(before), "timestamp stamped at receipt")
	assert.False(t, event.Timestamp.After(time.Now()))
}

func TestFeedDropsMalformedFrames(t *testing.T) {
	fs := newFeedServer(t)
	buffer := events.NewBuffer(10)
	f := New(fs.wsURL(), buffer, testLogger())

	require.NoError(t, f.Connect(context.Background(), "inc-1"))
	defer f.Disconnect()

	fs.send(t, `this is not json`)
	fs.send(t, `{"type":"observation","message":"still alive"}`)

	waitFor(t, func() bool { return buffer.Len() == 1 }, "valid event after malformed frame not buffered")
	assert.Equal(t, events.EventTypeObservation, buffer.Events()[0].Type)
	assert.Equal(t, StateConnected, f.State(), "malformed frames do not change state")
}

func TestFeedRemoteCloseDisconnects(t *testing.T) {
	fs := newFeedServer(t)
	f := New(fs.wsURL(), events.NewBuffer(10), testLogger())

	require.NoError(t, f.Connect(context.Background(), "inc-1"))
	fs.closeConn(t)

	waitFor(t, func() bool { return f.State() == StateDisconnected },
		"remote close should surface as disconnected")

	// No auto-reconnect: the state stays terminal for this instance.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, StateDisconnected, f.State())
}

func TestFeedDisconnectIdempotent(t *testing.T) {
	fs := newFeedServer(t)
	f := New(fs.wsURL(), events.NewBuffer(10), testLogger())

	// Disconnect before any connect must be safe.
	f.Disconnect()
	assert.Equal(t, StateDisconnected, f.State())

	require.NoError(t, f.Connect(context.Background(), "inc-1"))
	f.Disconnect()
	f.Disconnect()
	f.Disconnect()
	assert.Equal(t, StateDisconnected, f.State())
}

func TestFeedReconnectRequiresNewConnect(t *testing.T) {
	fs := newFeedServer(t)
	buffer := events.NewBuffer(10)
	f := New(fs.wsURL(), buffer, testLogger())

	require.NoError(t, f.Connect(context.Background(), "inc-1"))
	f.Disconnect()
	require.Equal(t, StateDisconnected, f.State())

	// A fresh Connect opens a second connection.
	require.NoError(t, f.Connect(context.Background(), "inc-1"))
	defer f.Disconnect()
	assert.Equal(t, StateConnected, f.State())

	fs.send(t, `{"type":"observation","message":"after reconnect"}`)
	waitFor(t, func() bool { return buffer.Len() == 1 }, "event on second connection not buffered")
}

func TestFeedConnectWhileConnectedIsNoOp(t *testing.T) {
	fs := newFeedServer(t)
	f := New(fs.wsURL(), events.NewBuffer(10), testLogger())

	require.NoError(t, f.Connect(context.Background(), "inc-1"))
	defer f.Disconnect()

	require.NoError(t, f.Connect(context.Background(), "inc-1"))

	fs.mu.Lock()
	connCount := len(fs.conns)
	fs.mu.Unlock()
	assert.Equal(t, 1, connCount, "second Connect must not dial again")
}

func TestFeedDialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	f := New("ws"+strings.TrimPrefix(server.URL, "http"), events.NewBuffer(10), testLogger())
	err := f.Connect(context.Background(), "inc-1")
	require.Error(t, err)
	assert.Equal(t, StateDisconnected, f.State())
}

func TestFeedOnEventCallback(t *testing.T) {
	fs := newFeedServer(t)
	buffer := events.NewBuffer(10)
	f := New(fs.wsURL(), buffer, testLogger())

	received := make(chan *events.AgentEvent, 4)
	f.OnEvent(func(e *events.AgentEvent) { received <- e })

	require.NoError(t, f.Connect(context.Background(), "inc-1"))
	defer f.Disconnect()

	fs.send(t, `{"type":"file_operation","file_path":"/var/log/app.log","success":true}`)

	select {
	case event := <-received:
		assert.Equal(t, events.EventTypeFileOperation, event.Type)
		assert.Equal(t, "/var/log/app.log", event.FilePath)
		require.NotNil(t, event.Success)
		assert.True(t, *event.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("OnEvent callback not invoked")
	}
}
