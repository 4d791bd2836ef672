package logger

import (
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level controls the minimum severity a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger gates messages by level. The level is stored atomically because
// config hot reloads change it while other goroutines are logging.
type Logger struct {
	*log.Logger
	level atomic.Int32
}

func New() *Logger {
	return NewWithLevel(LevelInfo)
}

// NewWithLevel creates a logger that drops messages below the given level.
func NewWithLevel(level Level) *Logger {
	l := &Logger{Logger: log.New(os.Stdout, "", log.LstdFlags)}
	l.level.Store(int32(level))
	return l
}

// SetLevel changes the minimum emitted level.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Level returns the current minimum emitted level.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

func (l *Logger) Debug(format string, v ...interface{}) {
	if l.Level() <= LevelDebug {
		l.Printf("[DEBUG] "+format, v...)
	}
}

func (l *Logger) Info(format string, v ...interface{}) {
	if l.Level() <= LevelInfo {
		l.Printf("[INFO] "+format, v...)
	}
}

func (l *Logger) Warn(format string, v ...interface{}) {
	if l.Level() <= LevelWarn {
		l.Printf("[WARN] "+format, v...)
	}
}

func (l *Logger) Error(format string, v ...interface{}) {
	if l.Level() <= LevelError {
		l.Printf("[ERROR] "+format, v...)
	}
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.Printf("[FATAL] "+format, v...)
	os.Exit(1)
}
