package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/platepack/pkg/packing"
)

func TestSolveReporter(t *testing.T) {
	var buf bytes.Buffer
	ctx := withLogger(context.Background(), newLogger(&buf, log.InfoLevel))
	r := newSolveReporter(ctx, time.Minute)
	r.start(ctx)

	r.onImprovement(packing.Improvement{Strategy: "boolean", Iteration: 1, Length: 12})
	r.onImprovement(packing.Improvement{Strategy: "boolean", Iteration: 2, Length: 12})
	r.onImprovement(packing.Improvement{Strategy: "boolean", Iteration: 3, Length: 9})
	r.finish(&packing.Outcome{Status: packing.TimeoutPartial, Solution: &packing.Solution{Length: 9}})

	out := buf.String()
	for _, want := range []string{"Initial: length 12", "Improved: length 9 (↓3", "best length 9", "--timeout"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "length 12") != 1 {
		t.Errorf("non-improving report was logged:\n%s", out)
	}
}

func TestSolveReporterHeartbeat(t *testing.T) {
	var buf bytes.Buffer
	ctx := withLogger(context.Background(), newLogger(&buf, log.InfoLevel))
	r := newSolveReporter(ctx, time.Minute)

	r.heartbeat()
	if !strings.Contains(buf.String(), "no packing yet") {
		t.Errorf("heartbeat = %q", buf.String())
	}

	buf.Reset()
	r.heartbeat()
	if buf.Len() != 0 {
		t.Errorf("heartbeat repeated within the interval: %q", buf.String())
	}
}

func TestSolveReporterFinishNil(t *testing.T) {
	var buf bytes.Buffer
	ctx := withLogger(context.Background(), newLogger(&buf, log.InfoLevel))
	r := newSolveReporter(ctx, time.Minute)
	r.start(ctx)
	r.finish(nil)
	if buf.Len() != 0 {
		t.Errorf("finish(nil) logged %q", buf.String())
	}
}

func TestSolveReporterUpdatesSpinner(t *testing.T) {
	ctx := withLogger(context.Background(), newLogger(&bytes.Buffer{}, log.InfoLevel))
	r := newSolveReporter(ctx, time.Minute)
	s := newSpinner("Solving...")
	r.attach(s)

	r.onImprovement(packing.Improvement{Strategy: "arith", Length: 7})
	if s.message != "Solving... best length 7" {
		t.Errorf("spinner message = %q", s.message)
	}
}
