package supervisor

import (
	"context"
	"sync"
)

// onceSignal is a one-shot readiness event: it transitions from unset
// to set exactly once, and waiters registered before or after that
// transition all observe it. It is the same shape as the resolved-once
// promise in warpfork-go-sup's promise.go, trimmed to the one thing
// LifecycleState needs: "has this happened yet," with no payload.
type onceSignal struct {
	once sync.Once
	ch   chan struct{}
}

func newOnceSignal() *onceSignal {
	return &onceSignal{ch: make(chan struct{})}
}

func (s *onceSignal) Set() {
	s.once.Do(func() { close(s.ch) })
}

func (s *onceSignal) IsSet() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the signal is set or ctx is done, whichever comes
// first. A signal that is already set returns immediately regardless
// of ctx's state (spec.md §8: "wait_started after finished returns
// immediately").
func (s *onceSignal) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	default:
	}
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LifecycleState holds the five observable booleans from spec.md §3
// plus their paired readiness events. It is owned exclusively by a
// Supervisor; every mark* method is idempotent, and every boolean
// except stopping is monotonic once true (stopping is cleared again by
// markFinished).
type LifecycleState struct {
	mu sync.RWMutex

	started   bool
	stopping  bool
	cancelled bool
	finished  bool
	didError  bool

	waitStarted  *onceSignal
	waitStopping *onceSignal
	waitFinished *onceSignal
}

// NewLifecycleState returns a LifecycleState with every observation
// false and every readiness event unset.
func NewLifecycleState() *LifecycleState {
	return &LifecycleState{
		waitStarted:  newOnceSignal(),
		waitStopping: newOnceSignal(),
		waitFinished: newOnceSignal(),
	}
}

func (s *LifecycleState) markStarted() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	s.waitStarted.Set()
}

func (s *LifecycleState) markStopping() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()
	s.waitStopping.Set()
}

func (s *LifecycleState) markCancelled() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

func (s *LifecycleState) markErrored() {
	s.mu.Lock()
	s.didError = true
	s.mu.Unlock()
}

// markFinished also clears stopping, per invariant 1:
// finished ⇒ ¬running ∧ ¬stopping.
func (s *LifecycleState) markFinished() {
	s.mu.Lock()
	s.finished = true
	s.stopping = false
	s.mu.Unlock()
	s.waitFinished.Set()
}

// IsStarted reports whether the supervised body has been scheduled.
func (s *LifecycleState) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// IsRunning reports started-but-not-finished. A cancelled-but-draining
// service is still running (spec.md §3, note on `running`).
func (s *LifecycleState) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && !s.finished
}

// IsStopping reports whether cancellation has been requested and the
// supervision has not yet fully joined.
func (s *LifecycleState) IsStopping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopping
}

// IsCancelled reports whether cancellation was ever requested,
// internally or externally. Monotonic once true.
func (s *LifecycleState) IsCancelled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancelled
}

// IsFinished reports whether the root scope has fully joined. Terminal
// once true.
func (s *LifecycleState) IsFinished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finished
}

// DidError reports whether at least one supervised unit raised a
// failure other than a plain cancellation.
func (s *LifecycleState) DidError() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.didError
}

// WaitStarted blocks until `started` becomes true or ctx is done.
func (s *LifecycleState) WaitStarted(ctx context.Context) error {
	return s.waitStarted.Wait(ctx)
}

// WaitStopping blocks until `stopping` becomes true or ctx is done.
func (s *LifecycleState) WaitStopping(ctx context.Context) error {
	return s.waitStopping.Wait(ctx)
}

// WaitFinished blocks until `finished` becomes true or ctx is done.
func (s *LifecycleState) WaitFinished(ctx context.Context) error {
	return s.waitFinished.Wait(ctx)
}
