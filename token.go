package subsystem

import "sync"

// cancellationToken is one node's shutdown signal. It distinguishes local
// shutdown (this node's own subtree is stopping) from global shutdown
// (an ancestor's shutdown reached this node). Both edges are monotone:
// once closed, a channel is never reopened.
type cancellationToken struct {
	mu sync.Mutex

	localDone  chan struct{}
	globalDone chan struct{}
	unionDone  chan struct{} // lazily built union of localDone/globalDone

	parent   *cancellationToken
	children []*cancellationToken
}

func newRootToken() *cancellationToken {
	return &cancellationToken{
		localDone:  make(chan struct{}),
		globalDone: make(chan struct{}),
	}
}

// newChildToken links a new token under parent. If parent is already shut
// down - locally (its own subtree was asked to stop) or globally (an
// ancestor's shutdown already reached it) - the child is born already
// globally shut down, checked under parent's lock so there is no window
// where a child could be constructed and missed by a concurrent trigger.
func newChildToken(parent *cancellationToken) *cancellationToken {
	t := &cancellationToken{
		localDone:  make(chan struct{}),
		globalDone: make(chan struct{}),
		parent:     parent,
	}

	parent.mu.Lock()
	defer parent.mu.Unlock()

	if parent.isShutdownRequested() {
		close(t.globalDone)
	} else {
		parent.children = append(parent.children, t)
	}

	return t
}

// root walks up to the tree's root token. parent pointers are set once at
// construction and never mutated, so this is safe without locking.
func (t *cancellationToken) root() *cancellationToken {
	for t.parent != nil {
		t = t.parent
	}
	return t
}

// triggerLocal sets t's local edge and recursively sets the global edge on
// every descendant of t. A no-op if t's local edge is already set.
func (t *cancellationToken) triggerLocal() {
	if !t.closeLocal() {
		return
	}

	for _, c := range t.snapshotChildren() {
		c.triggerGlobalFromParent()
	}
}

// triggerGlobalFromParent is invoked when an ancestor's shutdown reaches t.
// It sets t's global edge and recurses into t's own children.
func (t *cancellationToken) triggerGlobalFromParent() {
	if !t.closeGlobal() {
		return
	}

	for _, c := range t.snapshotChildren() {
		c.triggerGlobalFromParent()
	}
}

func (t *cancellationToken) closeLocal() (closed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.localDone:
		return false
	default:
		close(t.localDone)
		return true
	}
}

func (t *cancellationToken) closeGlobal() (closed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.globalDone:
		return false
	default:
		close(t.globalDone)
		return true
	}
}

func (t *cancellationToken) snapshotChildren() []*cancellationToken {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*cancellationToken, len(t.children))
	copy(out, t.children)
	return out
}

func (t *cancellationToken) isShutdownRequested() bool {
	select {
	case <-t.localDone:
		return true
	default:
	}

	select {
	case <-t.globalDone:
		return true
	default:
		return false
	}
}

// shutdownRequestedChan returns a channel closed once either edge fires.
// The channel is built lazily and memoized, so repeated calls are cheap and
// a dropped waiter never leaks more than the one merging goroutine, which
// itself exits the moment either edge closes.
func (t *cancellationToken) shutdownRequestedChan() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.unionDone != nil {
		return t.unionDone
	}

	t.unionDone = make(chan struct{})
	local, global := t.localDone, t.globalDone

	go func() {
		select {
		case <-local:
		case <-global:
		}
		close(t.unionDone)
	}()

	return t.unionDone
}
