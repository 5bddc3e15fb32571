package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textHandler(buf *bytes.Buffer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})
}

// failingHandler accepts every level and fails every write.
type failingHandler struct {
	slog.Handler
}

func (failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestFanoutHandler(t *testing.T) {
	var file, console bytes.Buffer
	f := NewFanoutHandler(nil, textHandler(&file, slog.LevelDebug), nil, textHandler(&console, slog.LevelInfo))
	require.Len(t, f.sinks, 2)

	logger := slog.New(f)
	logger.Debug("resolve miss", "misses", 2)
	logger.Info("producer frozen")

	assert.Contains(t, file.String(), "resolve miss")
	assert.Contains(t, file.String(), "producer frozen")
	assert.NotContains(t, console.String(), "resolve miss")
	assert.Contains(t, console.String(), "producer frozen")
}

func TestFanoutHandler_Enabled(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	assert.False(t, NewFanoutHandler().Enabled(ctx, slog.LevelError))

	info := NewFanoutHandler(textHandler(&buf, slog.LevelInfo))
	assert.False(t, info.Enabled(ctx, slog.LevelDebug))
	assert.True(t, info.Enabled(ctx, slog.LevelInfo))

	mixed := NewFanoutHandler(textHandler(&buf, slog.LevelInfo), textHandler(&buf, slog.LevelDebug))
	assert.True(t, mixed.Enabled(ctx, slog.LevelDebug))
}

func TestFanoutHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	f := NewFanoutHandler(textHandler(&buf, slog.LevelInfo))

	logger := slog.New(f.WithAttrs([]slog.Attr{slog.String("component", "recorder")}).WithGroup("lap"))
	logger.Info("lap completed", "number", 4)

	assert.Contains(t, buf.String(), "component=recorder")
	assert.Contains(t, buf.String(), "lap.number=4")
	assert.Same(t, f, f.WithGroup(""))
}

func TestFanoutHandler_FailingSink(t *testing.T) {
	var buf bytes.Buffer
	f := NewFanoutHandler(failingHandler{}, textHandler(&buf, slog.LevelInfo))

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "still delivered", 0)
	err := f.Handle(context.Background(), r)

	assert.EqualError(t, err, "sink down")
	assert.Contains(t, buf.String(), "still delivered")
}

func TestDynamicHandler(t *testing.T) {
	var buf bytes.Buffer
	paused := false
	h := NewDynamicHandler(textHandler(&buf, slog.LevelInfo), func() []slog.Attr {
		return []slog.Attr{slog.Bool("paused", paused)}
	})

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "engine")}).WithGroup("sync"))
	logger.Info("tick", "delay", "10ms")
	paused = true
	logger.Info("tick", "delay", "500ms")

	out := buf.String()
	assert.Contains(t, out, "component=engine")
	assert.Contains(t, out, "sync.delay=10ms sync.paused=false")
	assert.Contains(t, out, "sync.delay=500ms sync.paused=true")
	assert.Same(t, h, h.WithGroup(""))
}

func TestDynamicHandler_NilAttrs(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewDynamicHandler(textHandler(&buf, slog.LevelInfo), nil)).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
