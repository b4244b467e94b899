package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/celltrack/pkg/observability"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Loaded 1200 positions (14ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Observability hooks
// =============================================================================

// logHooks writes every observability event as a debug log line.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.PipelineHooks = logHooks{}
	_ observability.CacheHooks    = logHooks{}
	_ observability.HTTPHooks     = logHooks{}
)

func newLogHooks(l *log.Logger) logHooks {
	return logHooks{logger: l.WithPrefix("hooks")}
}

func (h logHooks) OnLoadStart(ctx context.Context, source string) {
	h.logger.Debug("load start", "source", source)
}

func (h logHooks) OnLoadComplete(ctx context.Context, source string, positions, links int, d time.Duration, err error) {
	h.logger.Debug("load done", "source", source, "positions", positions, "links", links, "duration", d, "error", err)
}

func (h logHooks) OnAnalyzeStart(ctx context.Context, experiment string) {
	h.logger.Debug("analyze start", "experiment", experiment)
}

func (h logHooks) OnAnalyzeComplete(ctx context.Context, experiment string, d time.Duration, err error) {
	h.logger.Debug("analyze done", "experiment", experiment, "duration", d, "error", err)
}

func (h logHooks) OnRenderStart(ctx context.Context, format string) {
	h.logger.Debug("render start", "format", format)
}

func (h logHooks) OnRenderComplete(ctx context.Context, format string, size int, d time.Duration, err error) {
	h.logger.Debug("render done", "format", format, "bytes", size, "duration", d, "error", err)
}

func (h logHooks) OnCacheHit(ctx context.Context, kind string) {
	h.logger.Debug("cache hit", "kind", kind)
}

func (h logHooks) OnCacheMiss(ctx context.Context, kind string) {
	h.logger.Debug("cache miss", "kind", kind)
}

func (h logHooks) OnCacheSet(ctx context.Context, kind string, size int) {
	h.logger.Debug("cache set", "kind", kind, "bytes", size)
}

func (h logHooks) OnRequest(ctx context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h logHooks) OnResponse(ctx context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "duration", d)
}
