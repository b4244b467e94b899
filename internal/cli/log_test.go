package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("loaded") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("loaded") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("loaded") }, true},
		{"warn at error level", log.ErrorLevel, func(l *log.Logger) { l.Warn("loaded") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))

			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(5 * time.Millisecond)
	prog.done("Loaded 12 positions")

	out := buf.String()
	if !strings.Contains(out, "Loaded 12 positions (") {
		t.Errorf("progress output = %q, want message with duration", out)
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := newLogHooks(newLogger(&buf, log.DebugLevel))
	ctx := context.Background()

	h.OnLoadStart(ctx, "cells.json")
	h.OnLoadComplete(ctx, "cells.json", 10, 9, time.Millisecond, nil)
	h.OnAnalyzeComplete(ctx, "exp", time.Millisecond, errors.New("boom"))
	h.OnCacheMiss(ctx, "report")
	h.OnResponse(ctx, "GET", "/api/summary", 200, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"hooks", "load start", "positions=10", "boom", "cache miss", "/api/summary"} {
		if !strings.Contains(out, want) {
			t.Errorf("hook output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := newLogHooks(newLogger(&buf, log.InfoLevel))
	h.OnCacheHit(context.Background(), "report")

	if buf.Len() != 0 {
		t.Errorf("hooks logged at info level: %q", buf.String())
	}
}
