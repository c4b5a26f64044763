package subsystem

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// contribution is one node's reap result, keyed by path for reporting.
type contribution struct {
	path     string
	out      outcome
	timedOut bool
}

// joinCollector performs the terminal reap for one Toplevel (or nested
// Toplevel) run: it waits for shutdown to be requested on root, then walks
// root's subtree in post-order up to the shutdown deadline, aggregating
// every non-success outcome into a single error.
type joinCollector struct {
	root    *node
	timeout time.Duration
	log     zerolog.Logger
}

// drive runs the full protocol described in spec.md §4.4. root itself is a
// structural anchor (a Toplevel's root, or a nested Toplevel's root) with no
// function of its own, so only its descendants contribute outcomes.
func (c *joinCollector) drive(ctx context.Context) error {
	select {
	case <-c.root.token.shutdownRequestedChan():
	case <-ctx.Done():
		return ctx.Err()
	}

	nodeEvent(c.log, zerolog.DebugLevel, c.root).Msg("shutdown requested, entering wind-down")

	deadline, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	children := nonDetachedChildren(c.root)
	perChild := make([][]contribution, len(children))

	var g errgroup.Group
	for i, ch := range children {
		i, ch := i, ch
		g.Go(func() error {
			perChild[i] = c.joinPostOrder(deadline, ch)
			return nil
		})
	}
	_ = g.Wait()

	var contribs []contribution
	for _, cs := range perChild {
		contribs = append(contribs, cs...)
	}

	err := aggregate(contribs)
	if err != nil {
		nodeEvent(c.log, zerolog.WarnLevel, c.root).Err(err).Msg("shutdown completed with errors")
	} else {
		nodeEvent(c.log, zerolog.DebugLevel, c.root).Msg("shutdown completed cleanly")
	}
	return err
}

// joinPostOrder awaits n's children before n itself, so a parent's
// contribution always follows everything beneath it - this is also what
// makes the aggregated error's ordering deterministic.
func (c *joinCollector) joinPostOrder(ctx context.Context, n *node) []contribution {
	children := nonDetachedChildren(n)

	perChild := make([][]contribution, len(children))
	var g errgroup.Group
	for i, ch := range children {
		i, ch := i, ch
		g.Go(func() error {
			perChild[i] = c.joinPostOrder(ctx, ch)
			return nil
		})
	}
	_ = g.Wait()

	var out []contribution
	for _, cs := range perChild {
		out = append(out, cs...)
	}

	return append(out, c.joinSelf(ctx, n))
}

// nonDetachedChildren filters out detached children: their outcome never
// feeds the normal aggregate. A detached subsystem's fate surfaces only
// through an explicit join - InitiatePartialShutdown, or its own nested
// Toplevel's HandleShutdownRequests - per spec.md §4.2 and scenario 6.
func nonDetachedChildren(n *node) []*node {
	all := n.childrenSnapshot()
	out := make([]*node, 0, len(all))
	for _, c := range all {
		if !c.detached {
			out = append(out, c)
		}
	}
	return out
}

func (c *joinCollector) joinSelf(ctx context.Context, n *node) contribution {
	select {
	case <-n.finishedCh:
		return contribution{path: n.path(), out: n.outcomeValue()}
	case <-ctx.Done():
		return contribution{path: n.path(), timedOut: true}
	}
}

// aggregate builds the final error from a flat, deterministically ordered
// list of contributions, per spec.md §7.
func aggregate(contribs []contribution) error {
	var errs []error
	var timedOutPaths []string

	for _, c := range contribs {
		switch {
		case c.timedOut:
			timedOutPaths = append(timedOutPaths, c.path)
		case c.out.kind == outcomeUserError:
			errs = append(errs, &SubsystemFailedError{Path: c.path, Err: c.out.err})
		case c.out.kind == outcomePanic:
			errs = append(errs, &SubsystemPanickedError{Path: c.path, Err: c.out.err})
		}
	}

	if len(timedOutPaths) > 0 {
		errs = append(errs, &ShutdownTimeoutError{Paths: timedOutPaths})
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &SubsystemsFailedError{Errors: errs}
	}
}
