package influx

import (
	"sync"

	"github.com/rf2tools/rf2sync/pkg/core"
)

// Sink writes recorder events as points. It satisfies recorder.Sink.
type Sink struct {
	m *Manager

	mu      sync.RWMutex
	session *core.Session
}

// NewSink creates a sink writing through m.
func NewSink(m *Manager) *Sink {
	return &Sink{m: m}
}

func (s *Sink) current() *core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// StartSession tags following points with sess.
func (s *Sink) StartSession(sess *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *sess
	s.session = &c
	return nil
}

// EndSession drops the session tags.
func (s *Sink) EndSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return core.ErrSessionNotStarted
	}
	s.session = nil
	return nil
}

// RecordSample writes a sample point.
func (s *Sink) RecordSample(x *core.TelemetrySample) error {
	sess := s.current()
	if sess == nil {
		return core.ErrSessionNotStarted
	}
	return s.m.WritePoint(BucketPlayerTelemetry, SamplePoint(sess, x))
}

// RecordLap writes a lap point.
func (s *Sink) RecordLap(l *core.LapRecord) error {
	sess := s.current()
	if sess == nil {
		return core.ErrSessionNotStarted
	}
	return s.m.WritePoint(BucketPlayerTelemetry, LapPoint(sess, l))
}

// RecordPauseEvent writes a pause point.
func (s *Sink) RecordPauseEvent(e *core.PauseEvent) error {
	return s.m.WritePoint(BucketSyncStatus, PausePoint(e))
}
