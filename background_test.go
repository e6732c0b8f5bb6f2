package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestBackgroundScope covers scenario 7: inside the scope the service
// is started and running and not cancelled; after Close it is
// cancelled and finished.
func TestBackgroundScope(t *testing.T) {
	svc := ServiceFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	scope, err := RunBackground(context.Background(), svc)
	if err != nil {
		t.Fatalf("RunBackground: %v", err)
	}

	mgr := scope.Manager()
	if !mgr.IsStarted() || !mgr.IsRunning() || mgr.IsCancelled() {
		t.Fatal("expected started ∧ running ∧ ¬cancelled inside the scope")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := scope.Close(closeCtx); err != nil {
		t.Fatalf("expected nil (cancellation filtered), got %v", err)
	}

	if !mgr.IsCancelled() || !mgr.IsFinished() {
		t.Fatal("expected cancelled ∧ finished after Close")
	}
}

// TestBackgroundScopePropagatesFailure validates that a failure inside
// the backgrounded service surfaces from Close.
func TestBackgroundScopePropagatesFailure(t *testing.T) {
	boom := errors.New("background failure")
	event := make(chan struct{})
	svc := ServiceFunc(func(ctx context.Context) error {
		select {
		case <-event:
			return boom
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	scope, err := RunBackground(context.Background(), svc)
	if err != nil {
		t.Fatalf("RunBackground: %v", err)
	}
	close(event)
	time.Sleep(10 * time.Millisecond)

	closeCtx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := scope.Close(closeCtx); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}
