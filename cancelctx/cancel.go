package cancelctx

import "fmt"

const cancelTopic = "context:cancelled"

type listener struct {
	handle uint64
	notify func()
}

func (c *Context) addListenerLocked(notify func()) uint64 {
	c.nextHandle++
	c.listeners = append(c.listeners, listener{handle: c.nextHandle, notify: notify})
	return c.nextHandle
}

func (c *Context) removeListener(handle uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.listeners {
		if l.handle == handle {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// Cancel flips the cancelled flag, stops any pending deadline timers,
// emits the cancellation event, and synchronously cancels every derived
// context in registration order, depth-first, before returning. Repeated
// calls are complete no-ops: the event is emitted once only.
func (c *Context) Cancel() {
	c.cancel(true)
}

// cancel runs the cancellation transition. detach is false when the call
// arrives through the parent's propagation walk; the parent is clearing
// its own listener table in that case.
func (c *Context) cancel(detach bool) {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	children := c.listeners
	c.listeners = nil
	parent := c.parent
	handle := c.parentHandle
	c.parent = nil
	id := c.id
	c.mu.Unlock()

	Debug(fmt.Sprintf("context::cancel id:%s", id))
	c.bus.Publish(cancelTopic, id)
	for _, child := range children {
		child.notify()
	}
	// closed last: a goroutine woken by Done observes a fully
	// propagated cancellation
	close(c.done)
	if detach && parent != nil {
		parent.removeListener(handle)
	}
}

// Done returns a channel that is closed when the context becomes
// cancelled, whether directly, through an ancestor, or by a deadline.
func (c *Context) Done() <-chan struct{} {
	return c.done
}

// OnCancel registers a callback invoked with the tree id when this
// context becomes cancelled. Registering on an already-cancelled context
// invokes the callback immediately and registers nothing.
func (c *Context) OnCancel(callback func(id string)) error {
	c.mu.Lock()
	if c.cancelled {
		id := c.id
		c.mu.Unlock()
		callback(id)
		return nil
	}
	defer c.mu.Unlock()
	return c.bus.Subscribe(cancelTopic, callback)
}

// OffCancel removes a callback previously registered with OnCancel.
func (c *Context) OffCancel(callback func(id string)) error {
	return c.bus.Unsubscribe(cancelTopic, callback)
}

// Release detaches the context from its parent and stops its pending
// deadline timers without cancelling it. Call it when a derived context
// is no longer needed, so a long-lived ancestor does not accumulate
// listener registrations for short-lived descendants.
func (c *Context) Release() {
	c.mu.Lock()
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	parent := c.parent
	handle := c.parentHandle
	c.parent = nil
	c.mu.Unlock()
	if parent != nil {
		parent.removeListener(handle)
	}
}
