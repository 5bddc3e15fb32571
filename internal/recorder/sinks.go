package recorder

import (
	"errors"
	"fmt"

	"github.com/rf2tools/rf2sync/internal/dispatcher"
	"github.com/rf2tools/rf2sync/pkg/core"
)

// Commands dispatched by the recorder.
const (
	CmdSessionStart = "session:start"
	CmdSessionEnd   = "session:end"
	CmdSample       = "telemetry:sample"
	CmdLap          = "telemetry:lap"
	CmdPause        = "sync:pause"
)

// Sink receives recorder events. storage.Backend satisfies it.
type Sink interface {
	StartSession(s *core.Session) error
	EndSession() error
	RecordSample(s *core.TelemetrySample) error
	RecordLap(l *core.LapRecord) error
	RecordPauseEvent(e *core.PauseEvent) error
}

// RegisterSinks registers handlers fanning every recorder command out to
// sinks in order. Handlers run synchronously so a session start is always
// seen before its samples.
func RegisterSinks(d *dispatcher.Dispatcher, sinks ...Sink) {
	d.Register(CmdSessionStart, func(e dispatcher.Event) (any, error) {
		s, ok := e.Payload.(*core.Session)
		if !ok {
			return nil, payloadError(e)
		}
		return nil, each(sinks, func(i int, sink Sink) error {
			// backends assign their own ids, so each gets its own copy
			if i == 0 {
				return sink.StartSession(s)
			}
			c := *s
			return sink.StartSession(&c)
		})
	}, dispatcher.Logged())

	d.Register(CmdSessionEnd, func(e dispatcher.Event) (any, error) {
		return nil, each(sinks, func(_ int, sink Sink) error {
			return sink.EndSession()
		})
	}, dispatcher.Logged())

	d.Register(CmdSample, func(e dispatcher.Event) (any, error) {
		s, ok := e.Payload.(*core.TelemetrySample)
		if !ok {
			return nil, payloadError(e)
		}
		return nil, each(sinks, func(_ int, sink Sink) error {
			return sink.RecordSample(s)
		})
	})

	d.Register(CmdLap, func(e dispatcher.Event) (any, error) {
		l, ok := e.Payload.(*core.LapRecord)
		if !ok {
			return nil, payloadError(e)
		}
		return nil, each(sinks, func(_ int, sink Sink) error {
			return sink.RecordLap(l)
		})
	}, dispatcher.Logged())

	d.Register(CmdPause, func(e dispatcher.Event) (any, error) {
		p, ok := e.Payload.(*core.PauseEvent)
		if !ok {
			return nil, payloadError(e)
		}
		return nil, each(sinks, func(_ int, sink Sink) error {
			return sink.RecordPauseEvent(p)
		})
	}, dispatcher.Logged())
}

func each(sinks []Sink, fn func(int, Sink) error) error {
	var errs []error
	for i, s := range sinks {
		if err := fn(i, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func payloadError(e dispatcher.Event) error {
	return fmt.Errorf("%s: unexpected payload %T", e.Command, e.Payload)
}
