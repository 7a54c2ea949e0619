package cancelctx

import (
	"errors"
	"testing"
	"time"
)

func waitCancelled(t *testing.T, c *Context, within time.Duration) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(within):
		t.Fatalf("Expected cancellation within %v", within)
	}
}

func TestDeadlineArbitration(t *testing.T) {
	early := time.Now().Add(30 * time.Minute)
	late := time.Now().Add(time.Hour)

	t.Run("Earlier deadline wins, early first", func(t *testing.T) {
		root := New(nil)
		a, err := root.WithDeadline(early)
		if err != nil {
			t.Fatalf("WithDeadline failed: %v", err)
		}
		b, err := a.WithDeadline(late)
		if err != nil {
			t.Fatalf("WithDeadline failed: %v", err)
		}
		if got, ok := b.Deadline(); !ok || !got.Equal(early) {
			t.Errorf("Expected effective deadline %v, got %v", early, got)
		}
	})

	t.Run("Earlier deadline wins, late first", func(t *testing.T) {
		root := New(nil)
		a, err := root.WithDeadline(late)
		if err != nil {
			t.Fatalf("WithDeadline failed: %v", err)
		}
		b, err := a.WithDeadline(early)
		if err != nil {
			t.Fatalf("WithDeadline failed: %v", err)
		}
		if got, ok := b.Deadline(); !ok || !got.Equal(early) {
			t.Errorf("Expected effective deadline %v, got %v", early, got)
		}
	})

	t.Run("Receiver is never mutated", func(t *testing.T) {
		root := New(nil)
		if _, err := root.WithDeadline(early); err != nil {
			t.Fatalf("WithDeadline failed: %v", err)
		}
		if _, ok := root.Deadline(); ok {
			t.Errorf("Expected receiver to keep no deadline after derivation")
		}
	})

	t.Run("Zero deadline is rejected", func(t *testing.T) {
		root := New(nil)
		child, err := root.WithDeadline(time.Time{})
		if child != nil {
			t.Errorf("Expected no context back, got %v", child)
		}
		var argErr *InvalidArgumentError
		if !errors.As(err, &argErr) || argErr.Code != "INVALID_DEADLINE" {
			t.Errorf("Expected INVALID_DEADLINE, got %v", err)
		}
	})
}

func TestTimeout(t *testing.T) {
	t.Run("Fires on the receiver and propagates down", func(t *testing.T) {
		root := New(nil)
		child, err := root.WithTimeout(100)
		if err != nil {
			t.Fatalf("WithTimeout failed: %v", err)
		}
		count := 0
		if err := child.OnCancel(func(string) { count++ }); err != nil {
			t.Fatalf("OnCancel failed: %v", err)
		}

		if child.Cancelled() {
			t.Fatalf("Expected context to be uncancelled before the timeout elapses")
		}

		waitCancelled(t, child, 2*time.Second)
		time.Sleep(50 * time.Millisecond)

		if !root.Cancelled() {
			t.Errorf("Expected the timer to cancel the receiver")
		}
		if !child.Cancelled() {
			t.Errorf("Expected cancellation to reach the derived context")
		}
		if count != 1 {
			t.Errorf("Expected exactly one notification, got %d", count)
		}
	})

	t.Run("Past deadline cancels promptly", func(t *testing.T) {
		root := New(nil)
		child, err := root.WithDeadline(time.Now().Add(-time.Minute))
		if err != nil {
			t.Fatalf("WithDeadline failed: %v", err)
		}
		waitCancelled(t, child, 2*time.Second)
		if !root.Cancelled() {
			t.Errorf("Expected receiver cancelled for a deadline already in the past")
		}
	})

	t.Run("Negative timeout clamps to an immediate deadline", func(t *testing.T) {
		root := New(nil)
		child, err := root.WithTimeout(-5)
		if err != nil {
			t.Fatalf("WithTimeout failed: %v", err)
		}
		waitCancelled(t, child, 2*time.Second)
	})

	t.Run("Early cancellation stops the pending timer", func(t *testing.T) {
		root := New(nil)
		child, err := root.WithTimeout(60_000)
		if err != nil {
			t.Fatalf("WithTimeout failed: %v", err)
		}

		root.mu.Lock()
		armed := len(root.timers)
		root.mu.Unlock()
		if armed != 1 {
			t.Fatalf("Expected one armed timer on the receiver, got %d", armed)
		}

		root.Cancel()

		root.mu.Lock()
		remaining := len(root.timers)
		root.mu.Unlock()
		if remaining != 0 {
			t.Errorf("Expected timer handles released on cancellation, got %d", remaining)
		}
		if !child.Cancelled() {
			t.Errorf("Expected derived context cancelled with the receiver")
		}
	})

	t.Run("Discarded later deadline arms no timer", func(t *testing.T) {
		root := New(nil)
		a, err := root.WithTimeout(60_000)
		if err != nil {
			t.Fatalf("WithTimeout failed: %v", err)
		}
		if _, err := a.WithDeadline(time.Now().Add(2 * time.Hour)); err != nil {
			t.Fatalf("WithDeadline failed: %v", err)
		}

		a.mu.Lock()
		armed := len(a.timers)
		a.mu.Unlock()
		if armed != 0 {
			t.Errorf("Expected no timer for a discarded later deadline, got %d", armed)
		}
	})
}
