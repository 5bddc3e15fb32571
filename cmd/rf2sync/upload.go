package main

import (
	"github.com/rf2tools/rf2sync/internal/api"
	"github.com/rf2tools/rf2sync/internal/storage"
	"github.com/rf2tools/rf2sync/pkg/core"
)

// uploadSink sends the exported file to the archive server when a session
// ends. It must be registered after the backend that exports the file.
type uploadSink struct {
	client *api.Client
	source storage.Uploadable
}

func (u *uploadSink) StartSession(*core.Session) error         { return nil }
func (u *uploadSink) RecordSample(*core.TelemetrySample) error { return nil }
func (u *uploadSink) RecordLap(*core.LapRecord) error          { return nil }
func (u *uploadSink) RecordPauseEvent(*core.PauseEvent) error  { return nil }

func (u *uploadSink) EndSession() error {
	path := u.source.GetExportedFilePath()
	if path == "" {
		return nil
	}
	go func() {
		if err := u.client.UploadLatest(u.source, ""); err != nil {
			Logger.Error("Failed to upload session", "path", path, "error", err)
			return
		}
		Logger.Info("Uploaded session", "path", path)
	}()
	return nil
}
