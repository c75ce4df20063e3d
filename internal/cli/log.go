package cli

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/platepack/pkg/packing"
)

// newLogger writes to w at level with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// instanceLogger tags every line with the instance file and its shape, so
// interleaved batch output stays attributable.
func instanceLogger(l *log.Logger, path string, inst *packing.Instance) *log.Logger {
	sub := l.With("instance", filepath.Base(path))
	if inst != nil {
		sub = sub.With("w", inst.Width, "n", inst.N)
	}
	return sub
}

// progress measures one CLI stage. Not safe for concurrent done calls.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// elapsed is the time since the stage started, truncated to whole seconds.
func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Truncate(time.Second)
}

// done logs "msg (1.234s)" plus any structured key/value pairs.
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg+" ("+time.Since(p.start).Round(time.Millisecond).String()+")", keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext falls back to log.Default so commands always log.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
