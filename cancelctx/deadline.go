package cancelctx

import "time"

// WithDeadline derives a new context carrying the earliest deadline seen
// at any level of the derivation chain. The supplied deadline is adopted
// only when the derived context has none yet or the supplied one is
// strictly earlier; a later deadline is silently discarded. When a
// deadline is adopted, a one-shot timer is armed against the receiver, so
// the deadline firing cancels the receiver and reaches the derived
// context through the normal propagation path.
func (c *Context) WithDeadline(deadline time.Time) (*Context, error) {
	if deadline.IsZero() {
		return nil, NewInvalidDeadlineError()
	}
	child, err := Derive(c)
	if err != nil {
		return nil, err
	}

	child.mu.Lock()
	adopted := !child.hasDeadline || deadline.Before(child.deadline)
	if adopted {
		child.deadline = deadline
		child.hasDeadline = true
	}
	child.mu.Unlock()

	if adopted {
		c.scheduleDeadline(deadline)
	}
	return child, nil
}

// WithTimeout is WithDeadline(now + ms). A negative timeout clamps to an
// immediate deadline.
func (c *Context) WithTimeout(ms int64) (*Context, error) {
	return c.WithDeadline(time.Now().Add(time.Duration(ms) * time.Millisecond))
}

// scheduleDeadline arms a one-shot timer that cancels the receiver once
// the deadline elapses, clamped at zero for deadlines already in the
// past. The handle is retained so the first cancellation through any
// path stops the timer.
func (c *Context) scheduleDeadline(deadline time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		return
	}
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	c.timers = append(c.timers, time.AfterFunc(d, c.Cancel))
}
