package subsystem

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// runLogger returns a sub-logger with run_id already attached, so every
// event logged by this Toplevel run - its signal handling, its subsystems'
// panics, its JoinCollector's wind-down - can be correlated in shared log
// output, including a nested Toplevel's own run alongside its parent's.
func runLogger(base zerolog.Logger, runID uuid.UUID) zerolog.Logger {
	return base.With().Str("run_id", runID.String()).Logger()
}

// nodeEvent starts a log event for n, pre-populated with its path and id.
func nodeEvent(log zerolog.Logger, level zerolog.Level, n *node) *zerolog.Event {
	return log.WithLevel(level).Str("path", n.path()).Str("id", n.id.String())
}
