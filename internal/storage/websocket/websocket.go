package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/rf2tools/rf2sync/internal/config"
	"github.com/rf2tools/rf2sync/pkg/core"
	"github.com/rf2tools/rf2sync/pkg/streaming"
)

// Backend streams session data over WebSocket to a live dashboard server.
// It implements storage.Backend but not storage.Uploadable.
type Backend struct {
	conn      *connection
	cfg       config.WebSocketConfig
	active    atomic.Bool
	idCounter atomic.Uint64
}

// New creates a new WebSocket storage backend.
func New(cfg config.WebSocketConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	if b.cfg.URL == "" {
		return fmt.Errorf("websocket URL not configured")
	}
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// Dropped returns how many messages were lost to a full queue or a broken connection.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope pushes a message to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	if !b.active.Load() {
		return core.ErrSessionNotStarted
	}
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// StartSession numbers the session, sends it and waits for the server ack.
func (b *Backend) StartSession(s *core.Session) error {
	s.ID = uint(b.idCounter.Add(1))
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{Session: s})
	if err != nil {
		return err
	}

	b.conn.setStart(data)
	b.active.Store(true)
	return b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession sends end_session and waits for the server ack.
func (b *Backend) EndSession() error {
	if !b.active.Swap(false) {
		return core.ErrSessionNotStarted
	}
	b.conn.setStart(nil)

	data, err := marshalEnvelope(streaming.TypeEndSession, nil)
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, streaming.TypeEndSession, ackTimeout)
}

func (b *Backend) RecordSample(s *core.TelemetrySample) error {
	return b.sendEnvelope(streaming.TypeSample, s)
}

func (b *Backend) RecordLap(l *core.LapRecord) error {
	return b.sendEnvelope(streaming.TypeLap, l)
}

func (b *Backend) RecordPauseEvent(e *core.PauseEvent) error {
	return b.sendEnvelope(streaming.TypePause, e)
}
