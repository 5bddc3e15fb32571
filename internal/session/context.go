package session

import (
	"log/slog"
	"sync"

	"github.com/rf2tools/rf2sync/pkg/core"
)

// Context holds the session being recorded
type Context struct {
	mu      sync.RWMutex
	Session *core.Session
	active  bool
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Session: &core.Session{TrackName: "No track loaded"},
	}
}

// GetSession returns the current session
func (sc *Context) GetSession() *core.Session {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.Session
}

// Active reports whether a session is being recorded
func (sc *Context) Active() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.active
}

// SetSession marks s as the session being recorded
func (sc *Context) SetSession(s *core.Session) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.Session = s
	sc.active = true
}

// Clear ends the current session, keeping it readable until the next one
func (sc *Context) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.active = false
}

// LogAttrs returns the session fields attached to every log record.
func (sc *Context) LogAttrs() []slog.Attr {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if !sc.active {
		return nil
	}
	return []slog.Attr{
		slog.String("track", sc.Session.TrackName),
		slog.String("session", sc.Session.SessionType),
	}
}
