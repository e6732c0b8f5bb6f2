package supervisor

import (
	"context"
	"testing"
	"time"
)

// TestLifecycleStateInitial validates a fresh LifecycleState reports
// every boolean false and every wait as pending.
func TestLifecycleStateInitial(t *testing.T) {
	s := NewLifecycleState()

	t.Run("all booleans false", func(t *testing.T) {
		if s.IsStarted() || s.IsRunning() || s.IsStopping() || s.IsCancelled() || s.IsFinished() || s.DidError() {
			t.Fatal("expected every observation false on a fresh state")
		}
	})

	t.Run("wait_started times out before marked", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := s.WaitStarted(ctx); err == nil {
			t.Fatal("expected WaitStarted to time out")
		}
	})
}

// TestLifecycleStateTransitions validates the ordering and
// idempotence of the mark* transitions.
func TestLifecycleStateTransitions(t *testing.T) {
	t.Run("markStarted sets started and running", func(t *testing.T) {
		s := NewLifecycleState()
		s.markStarted()
		if !s.IsStarted() || !s.IsRunning() {
			t.Fatal("expected started and running after markStarted")
		}
	})

	t.Run("markFinished clears stopping", func(t *testing.T) {
		s := NewLifecycleState()
		s.markStarted()
		s.markStopping()
		if !s.IsStopping() {
			t.Fatal("expected stopping true before finish")
		}
		s.markFinished()
		if s.IsStopping() {
			t.Fatal("expected stopping false after finish (invariant 1)")
		}
		if !s.IsFinished() || s.IsRunning() {
			t.Fatal("expected finished true and running false")
		}
	})

	t.Run("markCancelled is monotonic", func(t *testing.T) {
		s := NewLifecycleState()
		s.markCancelled()
		s.markCancelled()
		if !s.IsCancelled() {
			t.Fatal("expected cancelled true")
		}
	})

	t.Run("markErrored is idempotent", func(t *testing.T) {
		s := NewLifecycleState()
		s.markErrored()
		s.markErrored()
		if !s.DidError() {
			t.Fatal("expected did_error true")
		}
	})

	t.Run("wait_finished returns immediately once set", func(t *testing.T) {
		s := NewLifecycleState()
		s.markStarted()
		s.markFinished()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()
		if err := s.WaitFinished(ctx); err != nil {
			t.Fatalf("expected immediate return, got %v", err)
		}
	})
}

// TestOnceSignal validates the readiness-event primitive directly.
func TestOnceSignal(t *testing.T) {
	t.Run("set before wait returns immediately", func(t *testing.T) {
		sig := newOnceSignal()
		sig.Set()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()
		if err := sig.Wait(ctx); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("set after wait unblocks it", func(t *testing.T) {
		sig := newOnceSignal()
		done := make(chan error, 1)
		go func() { done <- sig.Wait(context.Background()) }()

		time.Sleep(10 * time.Millisecond)
		sig.Set()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("expected nil, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Wait did not unblock after Set")
		}
	})

	t.Run("set is safe to call twice", func(t *testing.T) {
		sig := newOnceSignal()
		sig.Set()
		sig.Set()
		if !sig.IsSet() {
			t.Fatal("expected IsSet true")
		}
	})
}
