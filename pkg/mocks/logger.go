package mocks

import (
	"fmt"

	"github.com/user/keythumb/pkg/ports"
)

// LogEntry is one recorded log call.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Message   string
}

// Logger records formatted log messages. Loggers derived with
// WithComponent share the same entry list.
type Logger struct {
	component string
	entries   *[]LogEntry
}

// NewLogger creates a recording logger.
func NewLogger() *Logger {
	return &Logger{entries: &[]LogEntry{}}
}

// Entries returns every recorded entry.
func (l *Logger) Entries() []LogEntry {
	return *l.entries
}

// Count returns how many entries were recorded at level.
func (l *Logger) Count(level ports.LogLevel) int {
	n := 0
	for _, e := range *l.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (l *Logger) record(level ports.LogLevel, msg string, args []interface{}) {
	*l.entries = append(*l.entries, LogEntry{Level: level, Component: l.component, Message: fmt.Sprintf(msg, args...)})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.record(ports.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.record(ports.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.record(ports.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.record(ports.LevelError, msg, args) }

func (l *Logger) WithComponent(name string) ports.Logger {
	return &Logger{component: name, entries: l.entries}
}

var _ ports.Logger = (*Logger)(nil)
