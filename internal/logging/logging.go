// Package logging provides the process-wide logger, adapted from the
// teacher's cmd/hiveexplorer/logger package: a global *slog.Logger that
// discards output until Init is called, so library code can log freely
// without every caller threading a logger through constructors.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// L is the global logger instance, initialized to discard all output until
// Init is called.
var L *slog.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	logPrefix     = "triage-"
	logSuffix     = ".log"
	retentionDays = 30
)

// Options configures the logger. Mirrors the run-level flags a triage
// invocation carries (spec §6: "structured logs to stderr or a run log").
type Options struct {
	// Enabled turns on logging; if false, L discards everything.
	Enabled bool
	// LogDir is the directory log files are written to. Defaults to
	// ~/.hosttriage/logs when empty.
	LogDir string
	// Level is the minimum level logged. Defaults to slog.LevelInfo.
	Level slog.Level
	// ToStderr additionally mirrors log records to stderr as text, for
	// interactive runs that also want a run-log file.
	ToStderr bool
}

// Init configures the global logger. Call once from the command entry
// point before any collector runs.
func Init(opts Options) error {
	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	logDir := opts.LogDir
	if logDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		logDir = filepath.Join(home, ".hosttriage", "logs")
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return err
	}

	cleanOldLogs(logDir)

	filename := filepath.Join(logDir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	level := opts.Level
	handlerOpts := &slog.HandlerOptions{Level: level}

	var w io.Writer = f
	if opts.ToStderr {
		w = io.MultiWriter(f, os.Stderr)
	}
	L = slog.New(slog.NewJSONHandler(w, handlerOpts))
	return nil
}

// cleanOldLogs removes run logs older than retentionDays (best-effort: a
// failure here never blocks triage from running).
func cleanOldLogs(logDir string) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}
		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), logPrefix)
		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}

// Debug logs at debug level with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at info level with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at warn level with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at error level with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
