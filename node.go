package subsystem

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrAlreadyFinished is returned by Start when the parent subsystem's
// runner has already begun winding down: its children set is closed and no
// new child may be attached.
var ErrAlreadyFinished = errors.New("subsystem: parent has already finished; cannot start a new child")

// node is one subsystem's tree entry. Exactly one goroutine (the node's
// runner, or the Toplevel/nested-Toplevel bootstrap for a root node) ever
// writes result and flips finished; every other field aside from children
// is immutable after construction.
type node struct {
	id     uuid.UUID
	name   string
	token  *cancellationToken
	parent *node // back-reference only, never used to extend parent's lifetime

	detached         bool
	shutdownOnFinish bool

	mu       sync.Mutex
	children []*node
	closed   bool // true once no more children may be attached

	finishedCh chan struct{}
	finished   bool
	result     outcome
}

func newNode(name string, parent *node, detached, shutdownOnFinish bool) *node {
	var tok *cancellationToken
	if parent == nil {
		tok = newRootToken()
	} else {
		tok = newChildToken(parent.token)
	}

	return &node{
		id:               uuid.New(),
		name:             name,
		token:            tok,
		parent:           parent,
		detached:         detached,
		shutdownOnFinish: shutdownOnFinish,
		finishedCh:       make(chan struct{}),
	}
}

// path is the slash-joined sequence of names from the root to this node.
func (n *node) path() string {
	if n.parent == nil {
		return "/" + n.name
	}
	parent := n.parent.path()
	if parent == "/" {
		parent = ""
	}
	return parent + "/" + n.name
}

func (n *node) addChild(c *node) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrAlreadyFinished
	}

	n.children = append(n.children, c)
	return nil
}

// lockChildren closes the node to new children. Called once this node's own
// function has stopped polling (or, for a root node, once its init closure
// has returned).
func (n *node) lockChildren() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
}

func (n *node) childrenSnapshot() []*node {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*node, len(n.children))
	copy(out, n.children)
	return out
}

// finish writes the node's outcome and flips finished, at most once.
func (n *node) finish(o outcome) {
	n.mu.Lock()
	if n.finished {
		n.mu.Unlock()
		return
	}
	n.finished = true
	n.result = o
	n.mu.Unlock()

	close(n.finishedCh)
}

// outcomeValue blocks until the node has finished and returns its result.
func (n *node) outcomeValue() outcome {
	<-n.finishedCh
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.result
}
