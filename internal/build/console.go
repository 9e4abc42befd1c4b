package build

import (
	"io"
	"os"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// NewConsoleHandler returns a btclog.Handler writing human-readable lines to
// w, suitable as the first member of a HandlerSet.
func NewConsoleHandler(w io.Writer) btclogv2.Handler {
	return btclog.NewDefaultHandler(w)
}

// NewStderrLogger builds a ready-to-use btclog.Logger under subsystem tag
// backed by a single-member HandlerSet writing to stderr, the default a
// binary falls back to before a caller swaps in its own multi-handler
// HandlerSet (console plus whatever else it wants fanned out to) via the
// package's UseLogger.
func NewStderrLogger(tag string) btclog.Logger {
	return NewLogger(tag, NewConsoleHandler(os.Stderr))
}

// NewLogger builds a btclog.Logger under subsystem tag whose every record
// is fanned out to each of handlers via a HandlerSet, so callers wanting a
// console sink plus any other btclogv2.Handler (a test probe, a metrics
// counter, a second transport) get it without hand-rolling the fan-out
// themselves.
func NewLogger(tag string, handlers ...btclogv2.Handler) btclog.Logger {
	return btclog.NewSLogger(NewHandlerSet(handlers...)).SubSystem(tag)
}
