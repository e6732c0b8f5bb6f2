package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/svcsup/internal/obslog"
)

// outcome is what a launched goroutine reports back to its owning
// Supervisor when it returns or panics. This is the same shape as
// warpfork-go-sup's reportMsg (engineShared.go/engineForkJoin.go): a
// task record paired with its result, delivered over a channel so the
// owning goroutine can react without any locking of its own state.
type outcome struct {
	rec *taskRecord
	err error
}

// Supervisor is the internal coordinator described in spec.md §4.3. It
// owns the root cancellation scope, the TaskRegistry, and the
// LifecycleState, and arbitrates every transition between them. It has
// no exported fields, methods or constructor — callers interact with it
// through Manager.
type Supervisor struct {
	service Service
	name    string
	logger  zerolog.Logger

	state    *LifecycleState
	registry *TaskRegistry
	manager  *Manager

	ranOnce atomic.Bool

	// ctxMu guards rootCtx/cancelRoot/daemonCtx/cancelDaemons and
	// cancelPending: Cancel() may be called by another goroutine before
	// run() has installed the root scope (e.g. a caller that starts
	// Run() on a goroutine and cancels without first awaiting
	// WaitStarted, or spec.md §4.5's RunChildService pattern, which
	// only says a caller "may" await the child's wait_started before
	// interacting with it further). cancelRoot is nil until run()
	// assigns it, so initiateCancel must never call it without first
	// checking under this lock.
	ctxMu         sync.Mutex
	rootCtx       context.Context
	cancelRoot    context.CancelFunc
	daemonCtx     context.Context
	cancelDaemons context.CancelFunc
	cancelPending bool

	outcomeCh chan outcome

	cancelOnce sync.Once
	selfCancel atomic.Bool

	mu                  sync.Mutex
	bodyID              uuid.UUID
	bodyDone            bool
	regularAndChildLive int
	daemonsCancelled    bool
	failures            []error
}

func newSupervisor(service Service, name string, logger zerolog.Logger) *Supervisor {
	if name == "" {
		name = "service"
	}
	return &Supervisor{
		service:   service,
		name:      name,
		logger:    logger,
		state:     NewLifecycleState(),
		registry:  NewTaskRegistry(),
		outcomeCh: make(chan outcome, 16),
	}
}

// run implements spec.md §4.3's Startup/Task-completion/Aggregation
// sequence. It blocks until the supervision has fully joined.
func (s *Supervisor) run(parentCtx context.Context) error {
	if !s.ranOnce.CompareAndSwap(false, true) {
		return ErrAlreadySupervised
	}

	s.ctxMu.Lock()
	s.rootCtx, s.cancelRoot = context.WithCancel(parentCtx)
	s.daemonCtx, s.cancelDaemons = context.WithCancel(s.rootCtx)
	pending := s.cancelPending
	s.ctxMu.Unlock()
	if pending {
		// A Cancel()/Stop() call landed before the root scope existed;
		// honor it immediately so the body starts under an
		// already-cancelled context rather than silently dropping the
		// request (see ctxMu's doc comment).
		s.cancelRoot()
	}

	bodyRec := s.registry.Register(kindBody, "body", uuid.Nil, s.service.Run)
	s.bodyID = bodyRec.id
	s.launch(bodyRec, s.rootCtx, s.service.Run)
	s.state.markStarted()
	s.logger.Debug().Str("supervisor", s.name).Msg("service body started")

	for s.registry.LiveCount() > 0 {
		rep := <-s.outcomeCh
		s.registry.Complete(rep.rec.id)
		s.handleOutcome(rep)
	}

	s.state.markStopping()
	err := aggregateFailures(s.snapshotFailures())
	s.state.markFinished()
	s.logger.Debug().Str("supervisor", s.name).Err(err).Msg("supervision finished")
	return err
}

func (s *Supervisor) handleOutcome(rep outcome) {
	switch rep.rec.kind {
	case kindBody:
		s.onBodyDone(rep.err)
	case kindRegular, kindChildService:
		s.onAuxDone(rep)
	case kindDaemon:
		s.onDaemonDone(rep)
	}
}

// onBodyDone implements the "body completes" row of spec.md §4.3's
// task completion policy table.
func (s *Supervisor) onBodyDone(err error) {
	if err != nil && !s.isNoise(err) {
		s.logger.Warn().Str("supervisor", s.name).Err(err).Msg("service body failed")
		s.recordFailure(err)
		s.initiateCancel()
		return
	}
	s.mu.Lock()
	s.bodyDone = true
	s.mu.Unlock()
	s.state.markStopping()
	s.maybeStopDaemons()
}

// onAuxDone handles regular-task and child-service completions, which
// share a policy: clean completion advances nothing, failure initiates
// cancellation (spec.md §4.3).
func (s *Supervisor) onAuxDone(rep outcome) {
	s.mu.Lock()
	s.regularAndChildLive--
	s.mu.Unlock()

	if rep.err != nil && !s.isNoise(rep.err) {
		s.logger.Warn().Str("supervisor", s.name).Str("task", rep.rec.name).Err(rep.err).Msg("task failed")
		s.recordFailure(rep.err)
		s.initiateCancel()
		return
	}
	s.maybeStopDaemons()
}

// onDaemonDone implements spec.md §4.3's daemon policy: any completion
// before stopping is an error; any completion during/after stopping is
// expected and contributes nothing.
func (s *Supervisor) onDaemonDone(rep outcome) {
	if s.state.IsStopping() {
		return
	}
	if rep.err != nil && !s.isNoise(rep.err) {
		s.recordFailure(rep.err)
	}
	s.logger.Warn().Str("supervisor", s.name).Str("task", rep.rec.name).Msg("daemon task exited early")
	s.recordFailure(&DaemonTaskExit{Name: rep.rec.name})
	s.initiateCancel()
}

// maybeStopDaemons cancels only the daemon-scoped context once the
// body has returned cleanly and every regular/child-service task has
// joined, per spec.md §4.3: "daemons are then cancelled." This is
// deliberately narrower than a full initiateCancel: it must not flip
// `cancelled` to true, since a clean exit with a lingering daemon is
// still a clean exit (spec.md §4.3 "Graceful-exit vs cancellation
// distinction").
func (s *Supervisor) maybeStopDaemons() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.daemonsCancelled || !s.bodyDone || s.regularAndChildLive > 0 {
		return
	}
	s.daemonsCancelled = true
	s.cancelDaemons()
}

// initiateCancel is the single idempotent path by which this
// Supervisor ever cancels its root scope, whether triggered by a
// recorded failure or by an external Manager.Cancel() call. Recording
// selfCancel before cancelling lets isNoise recognize the bare
// cancellation signals this very call produces in every other task
// (spec.md §9, "Filtering self-cancellation").
func (s *Supervisor) initiateCancel() {
	s.cancelOnce.Do(func() {
		s.selfCancel.Store(true)
		s.state.markCancelled()
		s.state.markStopping()
		s.logger.Debug().Str("supervisor", s.name).Msg("cancellation requested")
		s.requestRootCancel()
	})
}

// requestRootCancel cancels the root scope if it has been installed
// yet, or else records the request so run() applies it as soon as the
// scope is opened. Safe to call at any point in a Supervisor's
// lifetime, before or after run() has started.
func (s *Supervisor) requestRootCancel() {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	if s.cancelRoot != nil {
		s.cancelRoot()
		return
	}
	s.cancelPending = true
}

// isNoise reports whether err is a bare cancellation signal
// attributable to this Supervisor's own cancel request, and therefore
// should be dropped from aggregation rather than recorded as a
// failure (spec.md §7, §9).
func (s *Supervisor) isNoise(err error) bool {
	return isBareCancellation(err) && s.selfCancel.Load()
}

func isBareCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (s *Supervisor) recordFailure(err error) {
	s.mu.Lock()
	s.failures = append(s.failures, err)
	s.mu.Unlock()
	s.state.markErrored()
}

func (s *Supervisor) snapshotFailures() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.failures...)
}

// launch starts fn on a new goroutine under baseCtx, attaches this
// supervision's Manager and the task's name to the context, and
// reports the outcome back on s.outcomeCh. Panics are converted to
// plain errors, the same recover-then-report shape as
// warpfork-go-sup's childLaunch (engineShared.go).
func (s *Supervisor) launch(rec *taskRecord, baseCtx context.Context, fn Func) {
	ctx := withAttachments(baseCtx, ctxAttachments{manager: s.manager, name: rec.name})
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in task %q: %v", rec.name, r)
			}
			s.outcomeCh <- outcome{rec: rec, err: err}
		}()
		err = fn(ctx)
	}()
}

// spawnRegular registers and launches a regular task. Non-suspending,
// per spec.md §4.3.
func (s *Supervisor) spawnRegular(fn Func, name string) {
	if s.state.IsFinished() {
		return
	}
	rec := s.registry.Register(kindRegular, name, s.bodyID, fn)
	s.mu.Lock()
	s.regularAndChildLive++
	s.mu.Unlock()
	s.launch(rec, s.rootCtx, fn)
}

// spawnDaemon registers and launches a daemon task on the
// daemon-scoped context, so it can be cancelled independently of
// regular tasks during a graceful shutdown.
func (s *Supervisor) spawnDaemon(fn Func, name string) {
	if s.state.IsFinished() {
		return
	}
	rec := s.registry.Register(kindDaemon, name, s.bodyID, fn)
	s.launch(rec, s.daemonCtx, fn)
}

// spawnChildService constructs a nested Supervisor sharing this one's
// root scope (the child's root context derives from s.rootCtx, so
// cancelling the parent cancels the child transitively, but cancelling
// the child never reaches back up to the parent — spec.md §5).
func (s *Supervisor) spawnChildService(svc Service, name string) *Manager {
	if s.state.IsFinished() {
		return nil
	}
	child := newSupervisor(svc, name, s.logger)
	childManager := &Manager{sup: child}
	child.manager = childManager

	rec := s.registry.Register(kindChildService, child.name, s.bodyID, svc.Run)
	s.mu.Lock()
	s.regularAndChildLive++
	s.mu.Unlock()

	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in child service %q: %v", rec.name, r)
			}
			s.outcomeCh <- outcome{rec: rec, err: err}
		}()
		err = child.run(s.rootCtx)
	}()

	return childManager
}

// defaultLogger is used by every Supervisor that isn't given one
// explicitly via WithLogger.
var defaultLogger = obslog.Discard
