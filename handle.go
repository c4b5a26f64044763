package subsystem

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrChildNotFound is returned by InitiatePartialShutdown when the given
// handle is not a direct child of the receiver.
var ErrChildNotFound = errors.New("subsystem: not a child of this subsystem")

// SubsystemBuilder configures a subsystem started via SubsystemHandle.Start.
type SubsystemBuilder struct {
	// Detached, when true, means this subsystem's failure or panic does
	// not escalate shutdown to its parent. Its outcome surfaces only
	// through an explicit join: InitiatePartialShutdown, or a nested
	// Toplevel's own HandleShutdownRequests.
	Detached bool

	// ShutdownOnFinish, when true, means a successful return from this
	// subsystem requests local shutdown of its own subtree. Useful for
	// modeling a leaf whose completion should wind down its siblings.
	ShutdownOnFinish bool
}

// SubsystemHandle is the capability handed to a running subsystem's
// function, and returned to the caller of Start for its child.
type SubsystemHandle struct {
	node *node
	log  zerolog.Logger
}

// Start links a new subsystem under h and runs fn on its own goroutine.
// It fails with ErrAlreadyFinished if h's own function has already stopped
// polling (its children set is closed).
func (h *SubsystemHandle) Start(name string, fn SubsystemFunc, opt SubsystemBuilder) (*SubsystemHandle, error) {
	child := newNode(name, h.node, opt.Detached, opt.ShutdownOnFinish)

	if err := h.node.addChild(child); err != nil {
		return nil, err
	}

	childHandle := &SubsystemHandle{node: child, log: h.log}
	r := &runner{node: child, fn: fn, log: h.log}
	go r.run()

	return childHandle, nil
}

// OnShutdownRequested returns a channel that closes once this subsystem's
// local or global shutdown edge fires. Safe to race against other work in a
// select; a dropped select case never leaves the token in a broken state.
func (h *SubsystemHandle) OnShutdownRequested() <-chan struct{} {
	return h.node.token.shutdownRequestedChan()
}

// IsShutdownRequested reports whether shutdown has already been requested
// for this subsystem, without blocking.
func (h *SubsystemHandle) IsShutdownRequested() bool {
	return h.node.token.isShutdownRequested()
}

// RequestShutdown triggers local shutdown of this subsystem's own subtree.
func (h *SubsystemHandle) RequestShutdown() {
	h.node.token.triggerLocal()
}

// RequestGlobalShutdown walks up to the root of the tree and triggers local
// shutdown there, winding down the entire program.
func (h *SubsystemHandle) RequestGlobalShutdown() {
	h.node.token.root().triggerLocal()
}

// InitiatePartialShutdown requests shutdown of child's subtree and blocks
// until it has fully joined. child must be a handle returned by this
// handle's own Start call. Once joined, it returns child's own failure as a
// *SubsystemFailedError or *SubsystemPanickedError, or nil if child
// succeeded.
func (h *SubsystemHandle) InitiatePartialShutdown(child *SubsystemHandle) error {
	if child == nil || child.node.parent != h.node {
		return ErrChildNotFound
	}

	child.node.token.triggerLocal()
	<-child.node.finishedCh
	return aggregate([]contribution{{path: child.node.path(), out: child.node.outcomeValue()}})
}

// Name returns this subsystem's own name, as passed to Start.
func (h *SubsystemHandle) Name() string {
	return h.node.name
}

// Path returns the slash-joined sequence of names from the root to this
// subsystem.
func (h *SubsystemHandle) Path() string {
	return h.node.path()
}
