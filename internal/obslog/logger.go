// Package obslog provides the zerolog-based diagnostic logging used
// internally by the supervisor package.
//
// No behavior or test in this module depends on what gets logged:
// logging here is strictly an observability aid for callers who embed
// this core into a larger service, in the same spirit as
// internal/logging in cartographus. Unlike that package, this one has
// no global mutable logger — every Supervisor owns its own
// zerolog.Logger so that two supervisions in the same process never
// fight over shared configuration, and so a library consumer who never
// asks for logging gets a silent discard logger by default.
package obslog

import (
	"io"

	"github.com/rs/zerolog"
)

// Discard is the zero-configuration logger: it never writes anywhere.
// Used whenever a Supervisor/Manager is constructed without an
// explicit WithLogger option.
var Discard = zerolog.New(io.Discard)

// New builds a logger that writes timestamped JSON lines to w, a
// logger a caller can pass to WithLogger for local debugging. Unlike
// cartographus's logging.Config it offers no console/JSON switch; pass
// a zerolog.ConsoleWriter as w for human-readable output.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
