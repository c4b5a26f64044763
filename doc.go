// Package subsystem coordinates graceful shutdown across a tree of
// cooperating goroutines.
//
// A program built with subsystem starts with a Toplevel, which owns a root
// node and hands the root's SubsystemHandle to a user-supplied init
// function. From there, every long-running goroutine is started through
// SubsystemHandle.Start, which links a new node under its parent and runs
// the supplied SubsystemFunc wrapped so that its result, error or panic is
// captured instead of propagating across the goroutine boundary.
//
// Shutdown propagates downward through a tree of cancellation tokens:
// triggering shutdown on a node triggers global shutdown on every node
// beneath it. Completion and errors propagate upward: a failing or
// panicking subsystem requests shutdown of its parent's whole subtree so
// siblings wind down together, unless the subsystem was started detached.
//
// Programs that use subsystem should follow these rules to keep the tree
// well-formed:
//
//  1. Every goroutine that should be tracked for shutdown must be started
//     via SubsystemHandle.Start, never with a bare `go` statement.
//  2. A subsystem's body must observe OnShutdownRequested (directly, or by
//     racing it against its own blocking work) and return once it fires.
//     Shutdown is cooperative; nothing in this package preempts user code.
//  3. Call Toplevel.HandleShutdownRequests exactly once per Toplevel, after
//     any CatchSignals call, and treat its returned error as the program's
//     terminal outcome.
//  4. Use a nested Toplevel (NewNested) when a subtree should be allowed to
//     fail without bringing the rest of the program down; that is what
//     "detached" means for a node started directly via Start.
package subsystem
