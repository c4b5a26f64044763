package subsystem

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SubsystemFunc is the body of a subsystem. It is handed a SubsystemHandle
// scoped to its own node and should return once its work is done or once it
// observes h.OnShutdownRequested().
type SubsystemFunc func(h *SubsystemHandle) error

// runner wraps a SubsystemFunc so that its result, error or panic never
// crosses the goroutine boundary uncaptured.
type runner struct {
	node *node
	fn   SubsystemFunc
	log  zerolog.Logger
}

func (r *runner) run() {
	h := &SubsystemHandle{node: r.node, log: r.log}

	var o outcome
	if r.node.token.isShutdownRequested() {
		// An ancestor's shutdown reached this node before the runtime ever
		// scheduled it; it never gets to run.
		o = outcome{kind: outcomeCancelled}
	} else {
		o = r.exec(h)
	}

	// No more children may attach past this point (invariant: a node's
	// children set may grow only while its own function is still polling).
	r.node.lockChildren()

	r.applyEscalation(o)
	r.awaitChildren()

	r.node.finish(o)
}

func (r *runner) exec(h *SubsystemHandle) (o outcome) {
	defer func() {
		if p := recover(); p != nil {
			err := errors.WithStack(fmt.Errorf("%v", p))
			nodeEvent(r.log, zerolog.ErrorLevel, r.node).
				Interface("panic", p).
				Msg("subsystem panicked")
			o = outcome{kind: outcomePanic, err: err}
		}
	}()

	if err := r.fn(h); err != nil {
		return outcome{kind: outcomeUserError, err: err}
	}
	return outcome{kind: outcomeSuccess}
}

// applyEscalation implements the Runner completion contract (spec.md §4.2):
// a successful, shutdown-on-finish subsystem requests its own local
// shutdown; a failing or panicking non-detached subsystem always requests
// its own local shutdown and escalates to its parent so siblings wind down.
func (r *runner) applyEscalation(o outcome) {
	switch o.kind {
	case outcomeSuccess:
		if r.node.shutdownOnFinish {
			r.node.token.triggerLocal()
		}
	case outcomeUserError, outcomePanic:
		r.node.token.triggerLocal()
		if !r.node.detached && r.node.parent != nil {
			r.node.parent.token.triggerLocal()
		}
	case outcomeCancelled:
		// Already a consequence of shutdown; nothing further to trigger.
	}
}

func (r *runner) awaitChildren() {
	children := r.node.childrenSnapshot()
	if len(children) == 0 {
		return
	}

	var g errgroup.Group
	for _, c := range children {
		c := c
		g.Go(func() error {
			<-c.finishedCh
			return nil
		})
	}
	_ = g.Wait()
}
