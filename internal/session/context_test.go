package session

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rf2tools/rf2sync/pkg/core"
)

func TestContext_Defaults(t *testing.T) {
	ctx := NewContext()

	s := ctx.GetSession()
	assert.Equal(t, "No track loaded", s.TrackName)
	assert.False(t, ctx.Active())
	assert.Nil(t, ctx.LogAttrs())
}

func TestContext_SetAndClear(t *testing.T) {
	ctx := NewContext()
	ctx.SetSession(&core.Session{TrackName: "Mock Raceway", SessionType: "Race 1"})

	assert.True(t, ctx.Active())
	assert.Equal(t, []slog.Attr{
		slog.String("track", "Mock Raceway"),
		slog.String("session", "Race 1"),
	}, ctx.LogAttrs())

	ctx.Clear()
	assert.False(t, ctx.Active())
	assert.Equal(t, "Mock Raceway", ctx.GetSession().TrackName, "last session stays readable")
}

func TestContext_ThreadSafe(t *testing.T) {
	ctx := NewContext()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ctx.SetSession(&core.Session{TrackName: "A"})
		}()
		go func() {
			defer wg.Done()
			_ = ctx.LogAttrs()
			_ = ctx.GetSession()
		}()
	}
	wg.Wait()
	assert.True(t, ctx.Active())
}
