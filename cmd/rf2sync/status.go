package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rf2tools/rf2sync/internal/config"
	"github.com/rf2tools/rf2sync/pkg/rf2data"
)

// printStatus maps the shared memory once and prints what the plugin publishes.
func printStatus(w io.Writer) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.Start(); err != nil {
		return err
	}
	defer client.Stop()

	// let the engine resolve the player
	time.Sleep(2 * config.GetSyncConfig().IdleInterval)

	vs := client.VersionCheck()
	info := client.ScoringInfo()
	fmt.Fprintf(w, "plugin:    %s (verified=%t)\n", vs.Version, vs.Verified)
	if vs.Message != "" {
		fmt.Fprintf(w, "           %s\n", vs.Message)
	}
	fmt.Fprintf(w, "track:     %s (%s)\n", info.TrackName, rf2data.SessionName(info.Session))
	fmt.Fprintf(w, "loaded:    %t  on track: %t  AI driving: %t\n",
		client.IsTrackLoaded(), client.IsOnTrack(), client.IsAIDriving())
	fmt.Fprintf(w, "driver:    %s\n", client.DriverName())
	fmt.Fprintf(w, "vehicle:   %s\n", client.VehicleName())

	raw, err := json.MarshalIndent(client.Status(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(raw))
	return nil
}
