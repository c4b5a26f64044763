package subsystem

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InitFunc is the user closure that starts a Toplevel's (or nested
// Toplevel's) initial children.
type InitFunc func(h *SubsystemHandle) error

// Toplevel is the root harness for one shutdown domain: it owns a root
// node, optionally installs a signal source, and runs the terminal reap.
type Toplevel struct {
	root  *node
	log   zerolog.Logger
	runID uuid.UUID

	signalOnce sync.Once
	stopSignal func()
}

// ToplevelOpt configures a Toplevel at construction time.
type ToplevelOpt func(*Toplevel)

// WithLogger attaches a structured logger; every subsystem started under
// this Toplevel inherits it. Defaults to zerolog.Nop(), so the core stays
// silent unless a caller opts in.
func WithLogger(log zerolog.Logger) ToplevelOpt {
	return func(t *Toplevel) { t.log = log }
}

// New creates a root Toplevel and runs init with a SubsystemHandle bound to
// the root. Once init returns, no further children may attach to the root
// directly - everything beyond that point happens through the handles init
// already started.
func New(init InitFunc, opts ...ToplevelOpt) (*Toplevel, error) {
	t := &Toplevel{
		root:  newNode("", nil, false, false),
		log:   zerolog.Nop(),
		runID: uuid.New(),
	}
	for _, o := range opts {
		o(t)
	}
	t.log = runLogger(t.log, t.runID)

	h := &SubsystemHandle{node: t.root, log: t.log}
	if err := init(h); err != nil {
		t.root.lockChildren()
		return nil, err
	}
	t.root.lockChildren()

	return t, nil
}

// NewNested attaches a detached child of parent's subsystem and runs init
// against it, returning an independent Toplevel scoped to that subtree.
// A nested Toplevel's failures never escalate to parent: they surface only
// through this Toplevel's own HandleShutdownRequests.
func NewNested(parent *SubsystemHandle, init InitFunc, opts ...ToplevelOpt) (*Toplevel, error) {
	child := newNode("nested", parent.node, true, false)
	if err := parent.node.addChild(child); err != nil {
		return nil, err
	}

	t := &Toplevel{
		root:  child,
		log:   parent.log,
		runID: uuid.New(),
	}
	for _, o := range opts {
		o(t)
	}
	t.log = runLogger(t.log, t.runID)

	h := &SubsystemHandle{node: child, log: t.log}
	if err := init(h); err != nil {
		t.root.lockChildren()
		return nil, err
	}
	t.root.lockChildren()

	return t, nil
}

// CatchSignals consumes SIGINT/SIGTERM (Ctrl-C/Ctrl-Break on Windows, via
// the same signal numbers as exposed by the Go runtime) as a global
// shutdown trigger for the root. A second signal during the shutdown wait
// window is not specially handled by the core; see spec.md §6.
func (t *Toplevel) CatchSignals() {
	t.signalOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

		done := make(chan struct{})
		t.stopSignal = func() {
			signal.Stop(ch)
			close(done)
		}

		go func() {
			select {
			case sig := <-ch:
				t.log.Warn().
					Str("signal", sig.String()).
					Msg("received shutdown signal")
				t.root.token.root().triggerLocal()
			case <-done:
			}
		}()
	})
}

// HandleShutdownRequests waits for shutdown to be requested on the root (by
// CatchSignals, a subsystem's RequestGlobalShutdown, or a child's failure
// escalation), then collects the tree within timeout. For a nested
// Toplevel, the aggregated result is also written back into the node the
// parent tree is watching, so the parent's own join sees it complete.
func (t *Toplevel) HandleShutdownRequests(timeout time.Duration) error {
	if t.stopSignal != nil {
		defer t.stopSignal()
	}

	c := &joinCollector{root: t.root, timeout: timeout, log: t.log}
	err := c.drive(context.Background())
	if err != nil {
		err = &RunError{RunID: t.runID, Err: err}
	}

	if t.root.parent != nil {
		o := outcome{kind: outcomeSuccess}
		if err != nil {
			o = outcome{kind: outcomeUserError, err: err}
		}
		t.root.finish(o)
	}

	return err
}
