package blit

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards everything, and says so up front via Enabled so
// callers skip formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger sets the logger used by blit and the effect packages built on
// it. By default nothing is logged; pass nil to go back to that.
//
//   - Debug: command buffer execution, profiling scopes, allocations
//   - Info: per-frame summaries
//   - Warn: leaked temporaries
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
