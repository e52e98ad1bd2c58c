// Package logging sets up the shared file-backed logger. CLI output for the
// user stays on stdout; operational detail goes to a dated log file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is the shared logger instance. Until Init runs it writes to
// stderr at warn level, so packages can log unconditionally.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	Level: log.WarnLevel,
})

var logFile *os.File

// Init redirects the shared logger to a dated file under dir/logs.
func Init(dir string) error {
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("driftwatch-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	logFile = f
	Logger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.InfoLevel,
	})
	return nil
}

// Close flushes and closes the log file if Init opened one.
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}
