// Package producer writes synthetic plugin records into shared memory. It
// stands in for the simulator in tests and in the rf2mock binary.
package producer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rf2tools/rf2sync/internal/shmem"
	"github.com/rf2tools/rf2sync/pkg/rf2data"
)

// Vehicle describes one car on track.
type Vehicle struct {
	ID          int32
	Player      bool
	Driver      string
	VehicleName string
	Class       string
	Control     rf2data.ControlOwner

	// NoTelemetry leaves the car out of the telemetry array.
	NoTelemetry bool
}

// Producer owns the four mappings and a small track simulation.
type Producer struct {
	mu       sync.Mutex
	mappings [4]shmem.Mapping
	records  [4]rf2data.Record

	version  uint32
	info     rf2data.ScoringInfo
	vehicles []Vehicle
	order    []int // telemetry slot -> vehicle index

	elapsed float64
	laps    []int16
	dist    []float64
}

// New maps the four regions for pid and writes an idle session into them.
func New(opener shmem.Opener, pid string) (*Producer, error) {
	p := &Producer{
		info: rf2data.ScoringInfo{
			TrackName:  "Mock Raceway",
			Session:    10,
			MaxLaps:    10,
			LapDist:    4000,
			GamePhase:  5,
			InRealtime: true,
			PlayerName: "Mock Driver",
		},
	}
	for i, layout := range rf2data.Layouts {
		m, err := opener.Open(shmem.MapName(layout.MapName, pid), layout.Size)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("mapping %s: %w", layout.Kind, err)
		}
		p.mappings[i] = m
		p.records[i] = rf2data.Record{Layout: layout, Data: m.Bytes()[:layout.Size]}
	}
	p.records[rf2data.KindExtended].PutExtended(rf2data.Extended{
		Version:                 "3.7.15.1",
		Is64Bit:                 true,
		SessionStarted:          true,
		SimulationThreadStarted: true,
	})
	return p, nil
}

// SetVehicles replaces the field. Telemetry order resets to scoring order.
func (p *Producer) SetVehicles(vs ...Vehicle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vehicles = append([]Vehicle(nil), vs...)
	p.order = make([]int, 0, len(vs))
	for i, v := range vs {
		if !v.NoTelemetry {
			p.order = append(p.order, i)
		}
	}
	p.laps = make([]int16, len(vs))
	p.dist = make([]float64, len(vs))
	for i := range p.dist {
		p.dist[i] = float64(i) * 25
	}
}

// SetTelemetryOrder sets which vehicle each telemetry slot holds, by index
// into the vehicles passed to SetVehicles.
func (p *Producer) SetTelemetryOrder(order ...int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = append([]int(nil), order...)
}

// SetScoringInfo replaces the session block.
func (p *Producer) SetScoringInfo(info rf2data.ScoringInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info = info
}

// SetExtended writes the extended record.
func (p *Producer) SetExtended(ext rf2data.Extended) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[rf2data.KindExtended].PutExtended(ext)
}

// SetForceFeedback writes the force feedback record.
func (p *Producer) SetForceFeedback(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[rf2data.KindForceFeedback].PutForceFeedback(rf2data.ForceFeedback{ForceValue: v})
}

// Version returns the last published update stamp.
func (p *Producer) Version() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

// Publish writes scoring and telemetry with a new matching stamp pair.
func (p *Producer) Publish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.version++
	p.write(p.version, p.version)
}

// PublishTorn writes scoring and telemetry with a begin stamp ahead of the
// end stamp, as seen by a reader racing the writer.
func (p *Producer) PublishTorn() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.version++
	p.write(p.version+1, p.version)
}

// Advance moves every car along the lap by dt and publishes. Completed laps
// fill in the last lap and sector times.
func (p *Producer) Advance(dt time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	secs := dt.Seconds()
	p.elapsed += secs
	for i := range p.vehicles {
		speed := 50 + float64(i)
		p.dist[i] += speed * secs
		if p.dist[i] >= p.info.LapDist && p.info.LapDist > 0 {
			p.dist[i] -= p.info.LapDist
			p.laps[i]++
		}
	}
	p.version++
	p.write(p.version, p.version)
}

// Run advances the simulation every interval until ctx is done.
func (p *Producer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Advance(interval)
		}
	}
}

// Close releases the mappings. Shared memory on Unix is left in place for
// readers that still have it open.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for i, m := range p.mappings {
		if m == nil {
			continue
		}
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
		p.mappings[i] = nil
	}
	return errors.Join(errs...)
}

func (p *Producer) write(begin, end uint32) {
	scor := p.records[rf2data.KindScoring]
	tele := p.records[rf2data.KindTelemetry]

	scor.SetVersion(begin, begin)
	tele.SetVersion(begin, begin)

	info := p.info
	info.CurrentET = p.elapsed
	info.NumVehicles = int32(len(p.vehicles))
	scor.PutScoringInfo(info)
	scor.SetNumVehicles(len(p.vehicles))

	for i, v := range p.vehicles {
		slot, ok := scor.Slot(i)
		if !ok {
			break
		}
		slot.PutScoring(p.scoringVehicle(i, v))
	}

	tele.SetNumVehicles(len(p.order))
	for slotIdx, vi := range p.order {
		slot, ok := tele.Slot(slotIdx)
		if !ok || vi < 0 || vi >= len(p.vehicles) {
			continue
		}
		slot.PutTelemetry(p.telemetryVehicle(vi, p.vehicles[vi]))
	}

	scor.SetVersion(begin, end)
	tele.SetVersion(begin, end)
}

func (p *Producer) scoringVehicle(i int, v Vehicle) rf2data.ScoringVehicle {
	angle := p.angle(i)
	return rf2data.ScoringVehicle{
		ID:           v.ID,
		DriverName:   v.Driver,
		VehicleName:  v.VehicleName,
		VehicleClass: v.Class,
		TotalLaps:    p.laps[i],
		Sector:       p.sector(i),
		LapDist:      p.dist[i],
		IsPlayer:     v.Player,
		Control:      v.Control,
		Place:        uint8(i + 1),
		LastLapTime:  p.lapTime(i),
		LastSector1:  p.lapTime(i) / 3,
		LastSector2:  p.lapTime(i) * 2 / 3,
		BestLapTime:  p.lapTime(i),
		Pos:          rf2data.Vec3{X: 600 * math.Cos(angle), Z: 600 * math.Sin(angle)},
		LocalVel:     rf2data.Vec3{Z: -(50 + float64(i))},
	}
}

func (p *Producer) telemetryVehicle(i int, v Vehicle) rf2data.TelemetryVehicle {
	angle := p.angle(i)
	speed := 50 + float64(i)
	return rf2data.TelemetryVehicle{
		ID:                 v.ID,
		DeltaTime:          0.01,
		ElapsedTime:        p.elapsed,
		LapNumber:          int32(p.laps[i]),
		VehicleName:        v.VehicleName,
		TrackName:          p.info.TrackName,
		Pos:                rf2data.Vec3{X: 600 * math.Cos(angle), Z: 600 * math.Sin(angle)},
		LocalVel:           rf2data.Vec3{Z: -speed},
		Gear:               4,
		EngineRPM:          6500 + 20*speed,
		EngineMaxRPM:       9000,
		FilteredThrottle:   0.8,
		UnfilteredThrottle: 0.8,
		FilteredSteering:   0.05 * math.Sin(angle),
		Fuel:               60 - p.elapsed*0.01,
	}
}

func (p *Producer) angle(i int) float64 {
	if p.info.LapDist <= 0 {
		return 0
	}
	return 2 * math.Pi * p.dist[i] / p.info.LapDist
}

// sector follows the plugin numbering: 1 and 2 for the first two sectors,
// 0 for the last one.
func (p *Producer) sector(i int) int8 {
	if p.info.LapDist <= 0 {
		return 0
	}
	return int8(int(p.dist[i]/p.info.LapDist*3)+1) % 3
}

func (p *Producer) lapTime(i int) float64 {
	if p.laps[i] == 0 {
		return 0
	}
	return p.info.LapDist / (50 + float64(i))
}
