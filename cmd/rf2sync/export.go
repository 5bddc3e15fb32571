package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rf2tools/rf2sync/internal/database"
	gormstorage "github.com/rf2tools/rf2sync/internal/storage/gorm"
)

// exportSessions lists the sessions and laps stored in a SQLite dump.
func exportSessions(w io.Writer, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	db, err := database.OpenSQLite(path)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	sessions, err := gormstorage.LoadSessions(db)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}

	for _, s := range sessions {
		samples, err := gormstorage.CountSamples(db, s.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "#%d %s %s  %s  %s / %s  %d samples\n",
			s.ID, s.StartTime.Format("2006-01-02 15:04"), s.TrackName, s.SessionType,
			s.DriverName, s.VehicleName, samples)

		laps, err := gormstorage.LoadLaps(db, s.ID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\tlap\ttime\ts1\ts2\ts3\tpos\tfuel\t")
		for _, l := range laps {
			flag := ""
			if l.Invalid {
				flag = "invalid"
			}
			fmt.Fprintf(tw, "\t%d\t%s\t%.3f\t%.3f\t%.3f\t%d\t%.1f\t%s\n",
				l.Lap, lapTime(l.LapTime), l.Sector1, l.Sector2, l.Sector3, l.Place, l.Fuel, flag)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// lapTime formats seconds as m:ss.mmm.
func lapTime(secs float64) string {
	if secs <= 0 {
		return "-"
	}
	m := int(secs) / 60
	return fmt.Sprintf("%d:%06.3f", m, secs-float64(m*60))
}
