package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/platepack/pkg/packing"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("x") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("x") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("x") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("wrote output = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("Solve complete", "iterations", 3)

	out := buf.String()
	for _, want := range []string{"Solve complete (", "iterations=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("done() output %q missing %q", out, want)
		}
	}
	if got := prog.elapsed(); got != 0 {
		t.Errorf("elapsed() = %v, want 0 after a few microseconds", got)
	}
}

func TestInstanceLogger(t *testing.T) {
	var buf bytes.Buffer
	base := newLogger(&buf, log.InfoLevel)

	instanceLogger(base, "/data/ins-3.txt", packing.NewInstance(8, []int{3, 5}, []int{3, 5}, 8)).Info("loaded")
	if out := buf.String(); !strings.Contains(out, "instance=ins-3.txt") || !strings.Contains(out, "w=8") || !strings.Contains(out, "n=2") {
		t.Errorf("output %q missing instance fields", out)
	}

	buf.Reset()
	instanceLogger(base, "missing.txt", nil).Info("load failed")
	if out := buf.String(); !strings.Contains(out, "instance=missing.txt") || strings.Contains(out, "w=") {
		t.Errorf("output %q, want only the instance field", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Fatal("loggerFromContext() without a logger returned nil")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	got := loggerFromContext(withLogger(context.Background(), custom))
	if got != custom {
		t.Fatal("loggerFromContext() did not return the attached logger")
	}
	got.Info("hello")
	if buf.Len() == 0 {
		t.Error("attached logger did not write")
	}
}
