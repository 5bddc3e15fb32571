// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rf2tools/rf2sync/pkg/core"
)

// ExportFormatVersion is bumped when SessionExport changes incompatibly.
const ExportFormatVersion = 1

// SampleColumns names the values of each row in SessionExport.Samples.
var SampleColumns = []string{
	"elapsedTime", "lap", "lapDistance", "gear", "engineRPM", "speed",
	"throttle", "brake", "steering", "clutch", "fuel", "x", "y", "z", "place", "inPits", "force",
}

// SessionExport is the root JSON structure
type SessionExport struct {
	Version       int               `json:"version"`
	Session       core.Session      `json:"session"`
	Duration      float64           `json:"duration"`
	SampleColumns []string          `json:"sampleColumns"`
	Samples       [][]any           `json:"samples"`
	Laps          []core.LapRecord  `json:"laps"`
	PauseEvents   []core.PauseEvent `json:"pauseEvents"`
}

// exportJSON writes the session data to a (gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	// Build filename
	filename := fmt.Sprintf("%s_%s_%s",
		sanitize(b.session.TrackName),
		sanitize(b.session.SessionType),
		b.session.StartTime.Format("20060102_150405"))
	if b.cfg.CompressOutput {
		filename += ".json.gz"
	} else {
		filename += ".json"
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	b.lastExportMeta = core.UploadMetadata{
		TrackName:   b.session.TrackName,
		SessionType: b.session.SessionType,
		DriverName:  b.session.DriverName,
		VehicleName: b.session.VehicleName,
		Duration:    export.Duration,
		Laps:        len(b.laps),
	}
	return nil
}

func (b *Backend) buildExport() SessionExport {
	export := SessionExport{
		Version:       ExportFormatVersion,
		Session:       *b.session,
		Duration:      b.session.EndTime.Sub(b.session.StartTime).Seconds(),
		SampleColumns: SampleColumns,
		Samples:       make([][]any, 0, len(b.samples)),
		Laps:          make([]core.LapRecord, 0, len(b.laps)),
		PauseEvents:   make([]core.PauseEvent, 0, len(b.pauseEvents)),
	}
	if export.Duration < 0 {
		export.Duration = 0
	}

	for _, s := range b.samples {
		export.Samples = append(export.Samples, []any{
			s.ElapsedTime, s.Lap, s.LapDistance, s.Gear, s.EngineRPM, s.Speed,
			s.Throttle, s.Brake, s.Steering, s.Clutch, s.Fuel,
			s.Position.X, s.Position.Y, s.Position.Z,
			s.Place, boolToInt(s.InPits), s.Force,
		})
	}
	export.Laps = append(export.Laps, b.laps...)
	export.PauseEvents = append(export.PauseEvents, b.pauseEvents...)

	return export
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(data); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

// GetExportedFilePath returns the path of the last exported file.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last exported file.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportMeta
}

func sanitize(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_").Replace(s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
