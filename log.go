package vactor

import (
	"github.com/btcsuite/btclog"

	"github.com/catalyst-oss/vactor/internal/build"
)

// log is this package's subsystem logger. It defaults to a stderr-only
// logger tagged VACT so the runtime is never silent out of the box; a host
// binary that wants file rotation or a different level calls UseLogger with
// its own HandlerSet-backed logger, following the teacher's
// cmd/substrated/main.go wiring.
var log btclog.Logger = build.NewStderrLogger("VACT")

// UseLogger configures vactor to use the given logger for package-level
// logging. It should be called as early as possible, before any Runtime is
// constructed.
func UseLogger(logger btclog.Logger) {
	log = logger
}
