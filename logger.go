package mandel

import (
	"log/slog"
	"sync/atomic"
)

// discard is the silent default. Its handler reports every level as
// disabled, so attribute formatting is skipped on the render hot path.
var discard = slog.New(slog.DiscardHandler)

var pkgLogger atomic.Pointer[slog.Logger]

func init() { pkgLogger.Store(discard) }

// SetLogger installs the logger that New hands to engines built without
// WithLogger. An engine keeps the logger it was created with; later calls
// only affect engines created afterwards. A nil logger silences output
// again. It may be called from any goroutine.
//
// Records emitted by an engine:
//   - Info: "mandel: engine started" and "mandel: engine stopped"
//   - Warn: clamped zoom levels and raised memory budgets
//   - Debug: per-pass tile counts and cache evictions
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = discard
	}
	pkgLogger.Store(l)
}

// Logger reports the logger installed by SetLogger.
func Logger() *slog.Logger { return pkgLogger.Load() }
