package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards all log records. Enabled returns false so callers
// skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures logging for the cache package. The root package
// forwards its SetLogger here, so most callers never use this directly.
// Pass nil to silence the package again.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

func logger() *slog.Logger { return loggerPtr.Load() }

func logEvictFailure(fp Fingerprint, err error) {
	logger().Warn("cache: texture destroy failed", "fingerprint", uint64(fp), "error", err)
}
