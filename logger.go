package hwvg

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/hwvg/cache"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for hwvg and all its sub-packages.
// By default, hwvg produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by hwvg:
//   - [slog.LevelDebug]: internal diagnostics (batch breaks, atlas packing,
//     tessellation sizes)
//   - [slog.LevelInfo]: important lifecycle events (backend selected)
//   - [slog.LevelWarn]: non-fatal issues (atlas defragmentation, feather
//     downgrade under resource pressure)
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	hwvg.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	cache.SetLogger(l)
}

// Logger returns the current logger used by hwvg.
// Sub-packages share the same logger configuration through SetLogger,
// which forwards to them without introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
