package ports

import (
	"fmt"
	"strings"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is used by the keyframe and thumbnail components for
	// per-packet and per-frame detail.
	LevelDebug LogLevel = iota
	// LevelInfo is used by the orchestrator for run progress.
	LevelInfo
	// LevelWarn reports problems that do not stop the run, such as a
	// skipped frame.
	LevelWarn
	// LevelError reports the error that ended the run.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a level name. The empty string means info.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "quiet", "silent":
		return LevelQuiet, nil
	default:
		return LevelInfo, fmt.Errorf("ports: unknown log level %q", s)
	}
}

// Logger abstracts logging operations with multi-language support.
type Logger interface {
	// Debug logs a format string, which doubles as the translation key.
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the
	// component name.
	WithComponent(component string) Logger
}
