// internal/storage/storage.go
package storage

import "github.com/rf2tools/rf2sync/pkg/core"

// ErrSessionNotStarted is returned by Record* calls made before StartSession.
var ErrSessionNotStarted = core.ErrSessionNotStarted

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management (StartSession assigns ID to the passed pointer)
	StartSession(s *core.Session) error
	EndSession() error

	// Recording
	RecordSample(s *core.TelemetrySample) error
	RecordLap(l *core.LapRecord) error
	RecordPauseEvent(e *core.PauseEvent) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the session web frontend.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
