package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rf2tools/rf2sync/internal/config"
	"github.com/rf2tools/rf2sync/pkg/core"
	"github.com/rf2tools/rf2sync/pkg/streaming"
)

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages, and acks start_session/end_session.
// When dropFirst is set the first connection is closed after its first ack.
func testServer(t *testing.T, dropFirst bool) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}
	var conns atomic.Int32

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()
		n := conns.Add(1)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if env.Type == streaming.TypeStartSession || env.Type == streaming.TypeEndSession {
				data, _ := json.Marshal(streaming.AckMessage{Type: streaming.TypeAck, For: env.Type})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
				if dropFirst && n == 1 {
					return
				}
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	secret   string
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) count(msgType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, env := range m.messages {
		if env.Type == msgType {
			n++
		}
	}
	return n
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestInit_NoURL(t *testing.T) {
	b := New(config.WebSocketConfig{}, nil)
	assert.Error(t, b.Init())
}

func TestStartAndEndSession(t *testing.T) {
	srv, ml := testServer(t, false)
	defer srv.Close()

	b := New(config.WebSocketConfig{URL: wsURL(srv), Secret: "test"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	s := &core.Session{TrackName: "Mock Raceway"}
	require.NoError(t, b.StartSession(s))
	assert.Equal(t, uint(1), s.ID)
	require.NoError(t, b.EndSession())

	msgs := ml.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, streaming.TypeStartSession, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndSession, msgs[1].Type)
	assert.Equal(t, "test", ml.secret)

	var payload streaming.StartSessionPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &payload))
	assert.Equal(t, "Mock Raceway", payload.Session.TrackName)
}

func TestRecordBeforeStart(t *testing.T) {
	srv, _ := testServer(t, false)
	defer srv.Close()

	b := New(config.WebSocketConfig{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.ErrorIs(t, b.RecordSample(&core.TelemetrySample{}), core.ErrSessionNotStarted)
	assert.ErrorIs(t, b.EndSession(), core.ErrSessionNotStarted)
}

func TestFireAndForgetMessages(t *testing.T) {
	srv, ml := testServer(t, false)
	defer srv.Close()

	b := New(config.WebSocketConfig{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(&core.Session{}))
	require.NoError(t, b.RecordSample(&core.TelemetrySample{Lap: 1}))
	require.NoError(t, b.RecordSample(&core.TelemetrySample{Lap: 1}))
	require.NoError(t, b.RecordLap(&core.LapRecord{Lap: 1}))
	require.NoError(t, b.RecordPauseEvent(&core.PauseEvent{Paused: true}))
	require.NoError(t, b.EndSession())

	// end_session is acked after everything queued before it was read
	assert.Equal(t, 2, ml.count(streaming.TypeSample))
	assert.Equal(t, 1, ml.count(streaming.TypeLap))
	assert.Equal(t, 1, ml.count(streaming.TypePause))
	assert.Zero(t, b.Dropped())
}

func TestReconnectReplaysStart(t *testing.T) {
	srv, ml := testServer(t, true)
	defer srv.Close()

	b := New(config.WebSocketConfig{URL: wsURL(srv)}, nil)
	b.conn.backoff = 10 * time.Millisecond
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(&core.Session{TrackName: "A"}))

	assert.Eventually(t, func() bool {
		return ml.count(streaming.TypeStartSession) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseIdempotent(t *testing.T) {
	srv, _ := testServer(t, false)
	defer srv.Close()

	b := New(config.WebSocketConfig{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}
