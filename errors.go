package subsystem

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SubsystemFailedError reports a subsystem whose function returned an
// error.
type SubsystemFailedError struct {
	Path string
	Err  error
}

func (e *SubsystemFailedError) Error() string {
	return fmt.Sprintf("subsystem %q failed: %v", e.Path, e.Err)
}

func (e *SubsystemFailedError) Unwrap() error { return e.Err }

// SubsystemPanickedError reports a subsystem whose function panicked.
type SubsystemPanickedError struct {
	Path string
	Err  error
}

func (e *SubsystemPanickedError) Error() string {
	return fmt.Sprintf("subsystem %q panicked: %v", e.Path, e.Err)
}

func (e *SubsystemPanickedError) Unwrap() error { return e.Err }

// ShutdownTimeoutError reports the subsystems still running when the
// shutdown deadline expired.
type ShutdownTimeoutError struct {
	Paths []string
}

func (e *ShutdownTimeoutError) Error() string {
	return fmt.Sprintf("shutdown timed out waiting for: %s", strings.Join(e.Paths, ", "))
}

// CancelledByShutdownError marks a subsystem that never got to run because
// an ancestor's shutdown reached it first. aggregate never produces this on
// its own today (an unreached Cancelled-before-start node is treated as an
// expected consequence of shutdown, not a failure to report) - it is kept
// in the taxonomy and exported for errors.As, per spec.md §7's listing of
// it as a reportable-when-nothing-else-applies marker.
type CancelledByShutdownError struct {
	Path string
}

func (e *CancelledByShutdownError) Error() string {
	return fmt.Sprintf("subsystem %q was cancelled by shutdown before it started", e.Path)
}

// SubsystemsFailedError aggregates more than one contributing error from a
// single shutdown run, in deterministic post-order traversal order.
type SubsystemsFailedError struct {
	Errors []error
}

func (e *SubsystemsFailedError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d subsystems failed:\n  %s", len(e.Errors), strings.Join(parts, "\n  "))
}

// Unwrap exposes every contributing error, so errors.Is/errors.As can reach
// into any one of them.
func (e *SubsystemsFailedError) Unwrap() []error { return e.Errors }

// RunError wraps the non-nil error returned from a Toplevel's
// HandleShutdownRequests with the run_id that was attached to every log line
// logged during that run, so a reader going from a log line back to the
// returned error (or vice versa) can tell which run either one came from.
type RunError struct {
	RunID uuid.UUID
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s: %v", e.RunID, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
