package cancelctx

import (
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
)

// Context is a tree-derived handle bundling an inherited identity, a
// monotonic cancelled flag, an earliest-wins deadline, and a
// copy-isolated key/value store. Cancellation propagates one way, from a
// context to every context derived from it, synchronously and
// transitively.
type Context struct {
	mu sync.Mutex

	id          string
	cancelled   bool
	deadline    time.Time
	hasDeadline bool
	values      map[string]interface{}

	bus  EventBus.Bus
	done chan struct{}

	parent       *Context
	parentHandle uint64

	listeners  []listener
	nextHandle uint64

	// pending deadline timers, stopped on the first cancellation
	timers []*time.Timer
}

// New creates a root context: fresh tree id, not cancelled, no deadline,
// empty value store. A nil options pointer uses DefaultOptions.
func New(options *Options) *Context {
	if options == nil || options.IDGenerator == nil {
		options = DefaultOptions()
	}
	c := &Context{
		id:     options.IDGenerator(),
		values: map[string]interface{}{},
		bus:    EventBus.New(),
		done:   make(chan struct{}),
	}
	Debug(fmt.Sprintf("context::new id:%s", c.id))
	return c
}

// Derive creates a child context from parent: same tree id, a snapshot of
// the parent's cancelled flag, deadline and values, and a registration on
// the parent's cancellation listener table. Deriving from an
// already-cancelled parent yields a child that starts cancelled.
func Derive(parent *Context) (*Context, error) {
	if parent == nil {
		return nil, NewInvalidParentError()
	}

	child := &Context{
		bus:  EventBus.New(),
		done: make(chan struct{}),
	}

	parent.mu.Lock()
	child.id = parent.id
	child.cancelled = parent.cancelled
	child.deadline = parent.deadline
	child.hasDeadline = parent.hasDeadline
	child.values = CloneValues(parent.values)
	if parent.cancelled {
		parent.mu.Unlock()
		close(child.done)
		return child, nil
	}
	child.parent = parent
	child.parentHandle = parent.addListenerLocked(func() { child.cancel(false) })
	parent.mu.Unlock()

	return child, nil
}

// ID returns the tree identifier, shared by every context in the same
// derivation tree.
func (c *Context) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Cancelled reports whether the context has been cancelled. The flag is
// monotonic: once true it stays true.
func (c *Context) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// Deadline returns the effective deadline and whether one is set.
func (c *Context) Deadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline, c.hasDeadline
}

// Set assigns a named attribute and returns the context for chaining. The
// known attributes are typed: "id" accepts strings only, "cancelled"
// accepts bools and never clears a set flag, "deadline" accepts
// timestamps and keeps the earlier of old and new, "values" accepts a
// map and replaces the store with a copy. Any other key becomes a
// value-store entry.
func (c *Context) Set(key string, value interface{}) (*Context, error) {
	switch key {
	case "id":
		s, ok := value.(string)
		if !ok {
			return nil, NewInvalidIdentityError()
		}
		c.mu.Lock()
		c.id = s
		c.mu.Unlock()
	case "cancelled":
		b, ok := value.(bool)
		if !ok {
			return nil, NewInvalidAttributeError(key)
		}
		if b {
			c.Cancel()
		}
	case "deadline":
		t, ok := value.(time.Time)
		if !ok || t.IsZero() {
			return nil, NewInvalidDeadlineError()
		}
		c.mu.Lock()
		if !c.hasDeadline || t.Before(c.deadline) {
			c.deadline = t
			c.hasDeadline = true
		}
		c.mu.Unlock()
	case "values":
		if !IsObjectLike(value) {
			return nil, NewInvalidValuesError()
		}
		m, ok := value.(map[string]interface{})
		if !ok {
			return nil, NewInvalidValuesError()
		}
		c.mu.Lock()
		c.values = CloneValues(m)
		c.mu.Unlock()
	default:
		c.mu.Lock()
		c.values[key] = cloneValue(value)
		c.mu.Unlock()
	}
	return c, nil
}
