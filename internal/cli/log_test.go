package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		log   func(*log.Logger)
		want  bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("x") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("x") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("x") }, true},
		{"warn at info", log.InfoLevel, func(l *log.Logger) { l.Warn("x") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("logged = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("hidden")
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug message logged at info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("debug message missing after SetLogLevel(LogDebug)")
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(5 * time.Millisecond)
	p.done("Batch of 3")

	if !strings.Contains(buf.String(), "Batch of 3 (") {
		t.Errorf("progress output = %q, want message with duration", buf.String())
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := logHooks{logger: newLogger(&buf, log.InfoLevel)}
	ctx := context.Background()

	h.OnCacheHit(ctx, "layout")
	h.OnRequest(ctx, "POST", "/v1/layout")
	if buf.Len() != 0 {
		t.Errorf("debug hooks logged at info level: %q", buf.String())
	}

	h.OnResponse(ctx, "POST", "/v1/layout", 200, time.Millisecond)
	if !strings.Contains(buf.String(), "/v1/layout") {
		t.Errorf("OnResponse() output = %q, want path", buf.String())
	}
}
