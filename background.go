package supervisor

import "context"

// BackgroundScope is the Go rendering of spec.md §4.6's scoped
// background-service construct: it starts a service concurrently,
// hands back a Manager once the body has been scheduled, and
// guarantees the tree is cancelled and joined by the time Close
// returns.
type BackgroundScope struct {
	manager *Manager
	joined  chan error
}

// RunBackground starts svc on a new goroutine under ctx and blocks
// only until its body has been scheduled (wait_started), then returns
// a BackgroundScope wrapping its Manager. Callers must call Close to
// guarantee the tree is cancelled and fully joined; the common pattern
// is `defer scope.Close(ctx)` immediately after a successful call.
func RunBackground(ctx context.Context, svc Service, opts ...Option) (*BackgroundScope, error) {
	m := NewManager(svc, opts...)
	joined := make(chan error, 1)

	go func() {
		joined <- m.Run(ctx)
	}()

	if err := m.WaitStarted(ctx); err != nil {
		return nil, err
	}
	return &BackgroundScope{manager: m, joined: joined}, nil
}

// Manager returns the handle to the backgrounded supervision tree.
func (b *BackgroundScope) Manager() *Manager {
	return b.manager
}

// Close cancels the backgrounded tree and blocks until it has fully
// joined, returning whatever aggregated failure the supervision
// recorded (spec.md §4.6: "re-raise any aggregated failure recorded by
// the supervisor"). ctx only bounds the wait for joining; cancellation
// itself is unconditional and synchronous.
func (b *BackgroundScope) Close(ctx context.Context) error {
	b.manager.Cancel()
	select {
	case err := <-b.joined:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
