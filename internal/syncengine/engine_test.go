package syncengine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rf2tools/rf2sync/internal/producer"
	"github.com/rf2tools/rf2sync/internal/recordset"
	"github.com/rf2tools/rf2sync/internal/shmem"
	"github.com/rf2tools/rf2sync/pkg/rf2data"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newProducer(t *testing.T, h *shmem.Heap) *producer.Producer {
	t.Helper()
	p, err := producer.New(h, "")
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

// steppedEngine returns an engine with its record set opened but no loop
// running, so tests drive iterations with step.
func steppedEngine(t *testing.T, h *shmem.Heap) *Engine {
	t.Helper()
	e, err := New(Config{Opener: h}, nil)
	require.NoError(t, err)

	set, err := recordset.Open(h, rf2data.CopyAccess, "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { set.Close() })

	e.set.Store(set)
	e.prepare()
	return e
}

func TestStart_TwoVehicleScenario(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	p.SetVehicles(
		producer.Vehicle{ID: 7},
		producer.Vehicle{ID: 42, Player: true},
	)
	p.Publish()

	e, err := New(Config{Opener: h}, nil)
	require.NoError(t, err)
	require.NoError(t, e.Start(rf2data.CopyAccess, ""))
	defer e.Stop()

	assert.Equal(t, Running, e.State())
	pl := e.Player()
	require.NotNil(t, pl)
	assert.Equal(t, 1, pl.ScoringIndex)
	assert.Equal(t, 1, pl.TelemetryIndex)
	assert.Equal(t, int32(42), pl.ID)
	assert.False(t, e.Paused())
}

func TestStart_MappingFailure(t *testing.T) {
	opener := shmem.OpenerFunc(func(string, int) (shmem.Mapping, error) {
		return nil, errors.New("permission denied")
	})
	e, err := New(Config{Opener: opener}, nil)
	require.NoError(t, err)

	err = e.Start(rf2data.CopyAccess, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, shmem.ErrMapping)
	assert.Equal(t, Stopped, e.State())
	assert.Nil(t, e.Records())
}

func TestStop_Idempotent(t *testing.T) {
	h := shmem.NewHeap()
	newProducer(t, h)

	e, err := New(Config{Opener: h}, nil)
	require.NoError(t, err)

	e.Stop() // never started
	assert.Equal(t, Stopped, e.State())

	require.NoError(t, e.Start(rf2data.CopyAccess, ""))
	require.NoError(t, e.Start(rf2data.CopyAccess, ""), "second start is a no-op")

	e.Stop()
	e.Stop()
	assert.Equal(t, Stopped, e.State())
	assert.False(t, e.Paused())
	assert.NotNil(t, e.Records(), "final snapshots stay readable")
}

func TestStart_Restartable(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	p.SetVehicles(producer.Vehicle{ID: 5, Player: true})
	p.Publish()

	e, err := New(Config{Opener: h}, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, e.Start(rf2data.CopyAccess, ""))
		assert.Equal(t, Running, e.State())
		require.NotNil(t, e.Player())
		e.Stop()
		assert.Equal(t, Stopped, e.State())
	}
}

func TestRestart(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	p.SetVehicles(producer.Vehicle{ID: 5, Player: true})
	p.Publish()

	e, err := New(Config{Opener: h}, nil)
	require.NoError(t, err)
	require.NoError(t, e.Start(rf2data.CopyAccess, ""))
	first := e.Records()

	require.NoError(t, e.Restart(rf2data.DirectAccess, ""))
	defer e.Stop()

	assert.Equal(t, Running, e.State())
	assert.NotSame(t, first, e.Records())
	assert.Equal(t, rf2data.DirectAccess, e.Records().Region(rf2data.KindScoring).Mode())
}

func TestRestart_KeepsLastPlayer(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	p.SetVehicles(producer.Vehicle{ID: 7}, producer.Vehicle{ID: 42, Driver: "Me", Player: true})
	p.Publish()

	e, err := New(Config{Opener: h}, nil)
	require.NoError(t, err)
	require.NoError(t, e.Start(rf2data.CopyAccess, ""))
	defer e.Stop()
	require.NotNil(t, e.Player())

	p.SetVehicles(producer.Vehicle{ID: 7}, producer.Vehicle{ID: 42, Driver: "Me"})
	p.Publish()
	require.NoError(t, e.Restart(rf2data.CopyAccess, ""))

	pl := e.Player()
	require.NotNil(t, pl, "a miss on start keeps the previous player")
	assert.Equal(t, int32(42), pl.ID)
	assert.Equal(t, 1, pl.ScoringIndex)
	assert.Equal(t, "Me", pl.Scoring.Scoring().DriverName)
	assert.False(t, e.Paused())
}

func TestRestart_Concurrent(t *testing.T) {
	h := shmem.NewHeap()
	newProducer(t, h)

	e, err := New(Config{Opener: h}, nil)
	require.NoError(t, err)
	require.NoError(t, e.Start(rf2data.CopyAccess, ""))
	defer e.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Restart(rf2data.CopyAccess, ""))
		}()
	}
	wg.Wait()
	assert.Equal(t, Running, e.State())
}

func TestStep_FreezeRoundTrip(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	p.SetVehicles(producer.Vehicle{ID: 1, Player: true})

	e := steppedEngine(t, h)
	assert.True(t, e.Frozen(), "starts frozen")
	assert.False(t, e.Paused())
	assert.Equal(t, DefaultIdleInterval, e.Delay())

	p.Publish()
	assert.Equal(t, DefaultActiveInterval, e.step(t0))
	assert.False(t, e.Frozen())
	assert.False(t, e.Paused())

	// No new data inside the window keeps the engine active.
	assert.Equal(t, DefaultActiveInterval, e.step(t0.Add(time.Second)))
	assert.False(t, e.Frozen())

	// A full window without a new stamp freezes it.
	assert.Equal(t, DefaultIdleInterval, e.step(t0.Add(DefaultFreezeWindow)))
	assert.True(t, e.Frozen())
	assert.True(t, e.Paused())

	assert.Equal(t, DefaultIdleInterval, e.step(t0.Add(DefaultFreezeWindow+time.Second)))
	assert.True(t, e.Paused())

	p.Publish()
	assert.Equal(t, DefaultActiveInterval, e.step(t0.Add(DefaultFreezeWindow+2*time.Second)))
	assert.False(t, e.Frozen())
	assert.False(t, e.Paused())
}

func TestStep_ProducerNeverSeen(t *testing.T) {
	h := shmem.NewHeap()
	newProducer(t, h)

	e := steppedEngine(t, h)
	for i := 0; i < 3; i++ {
		assert.Equal(t, DefaultIdleInterval, e.step(t0.Add(time.Duration(i)*DefaultFreezeWindow)))
	}
	assert.True(t, e.Frozen())
	assert.False(t, e.Paused())
	assert.Nil(t, e.Player())
}

func TestStep_RetryDebounce(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	p.SetVehicles(producer.Vehicle{ID: 1}, producer.Vehicle{ID: 2})

	e := steppedEngine(t, h)
	now := t0
	tick := func() {
		p.Publish()
		e.step(now)
		now = now.Add(DefaultActiveInterval)
	}

	for i := 0; i < DefaultMaxResolveMisses-1; i++ {
		tick()
		assert.False(t, e.Paused(), "miss %d", i+1)
	}
	tick()
	assert.True(t, e.Paused())
	assert.Equal(t, DefaultMaxResolveMisses, e.misses)

	tick()
	assert.Equal(t, DefaultMaxResolveMisses, e.misses, "counter is capped")

	p.SetVehicles(producer.Vehicle{ID: 1}, producer.Vehicle{ID: 2, Player: true})
	tick()
	assert.False(t, e.Paused())
	assert.Equal(t, 0, e.misses)
}

func TestStep_HitResetsMisses(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	e := steppedEngine(t, h)

	now := t0
	tick := func() {
		p.Publish()
		e.step(now)
		now = now.Add(DefaultActiveInterval)
	}

	p.SetVehicles(producer.Vehicle{ID: 1})
	for i := 0; i < 4; i++ {
		tick()
	}
	assert.Equal(t, 4, e.misses)

	p.SetVehicles(producer.Vehicle{ID: 1, Player: true})
	tick()
	assert.Equal(t, 0, e.misses)

	p.SetVehicles(producer.Vehicle{ID: 1})
	for i := 0; i < 4; i++ {
		tick()
	}
	assert.False(t, e.Paused())
}

func TestStep_PartialMatchKeepsTelemetry(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	p.SetVehicles(producer.Vehicle{ID: 1}, producer.Vehicle{ID: 42, Player: true})

	e := steppedEngine(t, h)
	p.Publish()
	e.step(t0)
	pl := e.Player()
	require.NotNil(t, pl)
	require.True(t, pl.HasTelemetry())

	p.SetVehicles(producer.Vehicle{ID: 1}, producer.Vehicle{ID: 42, Player: true, NoTelemetry: true})
	p.Publish()
	e.step(t0.Add(time.Second))

	pl = e.Player()
	require.NotNil(t, pl)
	assert.Equal(t, 1, pl.ScoringIndex)
	assert.Equal(t, rf2data.InvalidIndex, pl.TelemetryIndex)
	assert.Equal(t, int32(42), pl.Telemetry.ID(), "previous telemetry kept")
	assert.False(t, e.Paused())
}

func TestStep_IdentityFollowsReorder(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	vs := make([]producer.Vehicle, 8)
	for i := range vs {
		vs[i] = producer.Vehicle{ID: int32(100 + i)}
	}
	vs[3] = producer.Vehicle{ID: 42, Player: true}
	p.SetVehicles(vs...)

	e := steppedEngine(t, h)
	p.Publish()
	e.step(t0)
	require.NotNil(t, e.Player())
	assert.Equal(t, 3, e.Player().ScoringIndex)

	vs[3], vs[7] = vs[7], vs[3]
	p.SetVehicles(vs...)
	p.SetTelemetryOrder(7, 0, 1, 2, 3, 4, 5, 6)
	p.Publish()
	e.step(t0.Add(time.Second))

	pl := e.Player()
	assert.Equal(t, 7, pl.ScoringIndex)
	assert.Equal(t, 0, pl.TelemetryIndex)
	assert.Equal(t, int32(42), pl.Telemetry.ID())
}

func TestStep_PlayerOverride(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	p.SetVehicles(producer.Vehicle{ID: 1, Player: true}, producer.Vehicle{ID: 2})

	e := steppedEngine(t, h)
	e.SetPlayerOverride(1, true)
	p.Publish()
	e.step(t0)

	require.NotNil(t, e.Player())
	assert.Equal(t, 1, e.Player().ScoringIndex)
	assert.Equal(t, int32(2), e.Player().ID)

	idx, on := e.PlayerOverride()
	assert.Equal(t, 1, idx)
	assert.True(t, on)

	e.SetPlayerOverride(0, false)
	p.Publish()
	e.step(t0.Add(time.Second))
	assert.Equal(t, 0, e.Player().ScoringIndex)
}

func TestStep_PinBeyondActiveIsMiss(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	p.SetVehicles(producer.Vehicle{ID: 1}, producer.Vehicle{ID: 2, Player: true})

	e := steppedEngine(t, h)
	e.SetPlayerOverride(5, true)

	now := t0
	for i := 0; i < DefaultMaxResolveMisses; i++ {
		p.Publish()
		e.step(now)
		now = now.Add(DefaultActiveInterval)
	}
	assert.Nil(t, e.Player())
	assert.Equal(t, DefaultMaxResolveMisses, e.misses)
	assert.True(t, e.Paused())

	e.SetPlayerOverride(0, true)
	p.Publish()
	e.step(now)
	require.NotNil(t, e.Player())
	assert.Equal(t, int32(1), e.Player().ID)
	assert.False(t, e.Paused())
}

func TestSetPlayerOverride_PublishedTogether(t *testing.T) {
	e, err := New(Config{Opener: shmem.NewHeap()}, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			if i%2 == 0 {
				e.SetPlayerOverride(3, true)
			} else {
				e.SetPlayerOverride(rf2data.InvalidIndex, false)
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		idx, on := e.PlayerOverride()
		if on {
			require.Equal(t, 3, idx)
		} else {
			require.Equal(t, rf2data.InvalidIndex, idx)
		}
	}
}

func TestStep_TornReadsKeepPreviousSnapshot(t *testing.T) {
	h := shmem.NewHeap()
	p := newProducer(t, h)
	p.SetVehicles(producer.Vehicle{ID: 1, Player: true})

	e := steppedEngine(t, h)
	p.Publish()
	e.step(t0)

	p.PublishTorn()
	e.step(t0.Add(time.Second))
	assert.Equal(t, uint32(1), e.Records().Scoring().VersionEnd())
	assert.Equal(t, [4]uint64{1, 1, 0, 0}, e.Records().Misses())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "state(9)", State(9).String())
}
