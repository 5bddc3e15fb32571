package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// SessionFilePath names a per-run file in dir as name.<start>.ext, so files
// of one run sort together.
func SessionFilePath(dir, name, ext string, start time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.%s", name, start.Format("20060102_150405"), ext))
}

// LogFilePath is the log file of the run started at sessionStart.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return SessionFilePath(logsDir, appName, "log", sessionStart)
}
