// Command rf2mock publishes a synthetic race into the rFactor 2 shared
// memory regions, for running rf2sync without the simulator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rf2tools/rf2sync/internal/logging"
	"github.com/rf2tools/rf2sync/internal/producer"
	"github.com/rf2tools/rf2sync/internal/shmem"
	"github.com/rf2tools/rf2sync/pkg/rf2data"
)

func main() {
	var (
		dir      = flag.String("shm-dir", shmem.DefaultDir, "directory of the shared memory files (POSIX only)")
		pid      = flag.String("pid", "", "producer process id used in the mapping names")
		cars     = flag.Int("cars", 8, "number of cars on track, the last one is the player")
		interval = flag.Duration("interval", 10*time.Millisecond, "update interval")
		track    = flag.String("track", "Mock Raceway", "track name")
		session  = flag.Int("session", 10, "session number (0 test day, 1-4 practice, 5-8 qualify, 9 warmup, 10-13 race)")
		level    = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	manager := logging.NewSlogManager()
	manager.Setup(nil, *level, nil)
	logger := manager.Logger()

	if err := run(*dir, *pid, *cars, *interval, *track, int32(*session)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("rf2mock failed", "error", err)
		os.Exit(1)
	}
	logger.Info("rf2mock stopped")
}

func run(dir, pid string, cars int, interval time.Duration, track string, session int32) error {
	if cars < 1 || cars > rf2data.MaxVehicles {
		return fmt.Errorf("cars must be between 1 and %d", rf2data.MaxVehicles)
	}

	p, err := producer.New(shmem.OSOpener{Dir: dir}, pid)
	if err != nil {
		return err
	}
	defer p.Close()

	vehicles := make([]producer.Vehicle, cars)
	for i := range vehicles {
		vehicles[i] = producer.Vehicle{
			ID:          int32(100 + i),
			Driver:      fmt.Sprintf("Driver %d", i+1),
			VehicleName: fmt.Sprintf("Mock GT #%d", i+1),
			Class:       "GT3",
		}
	}
	player := &vehicles[cars-1]
	player.Player = true
	player.Driver = "Mock Driver"
	p.SetVehicles(vehicles...)
	p.SetScoringInfo(rf2data.ScoringInfo{
		TrackName:  track,
		Session:    session,
		MaxLaps:    10,
		LapDist:    4000,
		GamePhase:  5,
		InRealtime: true,
		PlayerName: player.Driver,
	})
	p.Publish()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return p.Run(ctx, interval)
}
