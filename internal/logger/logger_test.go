package logger

import (
	"io"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSetLevelConcurrentWithLogging(t *testing.T) {
	l := New()
	l.SetOutput(io.Discard)

	// Config hot reloads change the level while other goroutines log. The
	// race detector fails this test if the level is not stored atomically.
	done := make(chan struct{})
	go func() {
		defer close(done)
		levels := []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}
		for i := 0; i < 500; i++ {
			l.SetLevel(levels[i%len(levels)])
		}
	}()

	for i := 0; i < 500; i++ {
		l.Debug("tick %d", i)
		l.Info("tick %d", i)
		l.Warn("tick %d", i)
		l.Error("tick %d", i)
	}
	<-done

	l.SetLevel(LevelWarn)
	if l.Level() != LevelWarn {
		t.Fatalf("Expected level warn, got %d", l.Level())
	}
}
