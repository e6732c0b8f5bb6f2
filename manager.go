package supervisor

import (
	"context"

	"github.com/rs/zerolog"
)

// Manager is the handle callers use to drive and observe one
// supervision tree, the public face of the internal Supervisor. It is
// the Go counterpart of spec.md §3's manager: the thing a Service
// reaches via ManagerFromContext to spawn further work, and the thing
// an external caller holds to start, cancel, and join the tree.
type Manager struct {
	sup *Supervisor
}

// Option configures a Manager at construction time.
type Option func(*Supervisor)

// WithLogger attaches a zerolog.Logger that the supervision logs its
// lifecycle transitions and task failures to. The default is a
// discarding logger, matching svcsup's library posture: an embedder
// opts into visibility rather than getting it for free.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Supervisor) { s.logger = logger }
}

// WithName attaches a human-readable name used in log lines and in
// nested child-service task names.
func WithName(name string) Option {
	return func(s *Supervisor) { s.name = name }
}

// NewManager constructs a Manager around svc. The Manager runs svc at
// most once: a second Run on it returns ErrAlreadySupervised. Wrapping
// the same svc in a second Manager is not detected.
func NewManager(svc Service, opts ...Option) *Manager {
	sup := newSupervisor(svc, "", defaultLogger)
	for _, opt := range opts {
		opt(sup)
	}
	m := &Manager{sup: sup}
	sup.manager = m
	return m
}

// Run starts the service body, blocks until the whole supervision tree
// has joined, and returns the aggregated failure (nil, a single error,
// or a *CompositeError), per spec.md §4.3 and §7.
func (m *Manager) Run(ctx context.Context) error {
	return m.sup.run(ctx)
}

// Cancel requests cancellation of the entire supervision tree. It is
// synchronous (the cancellation signal has been issued by the time it
// returns) and idempotent: calling it any number of times, from any
// goroutine, has the same effect as calling it once (spec.md §4.1,
// §8).
func (m *Manager) Cancel() {
	m.sup.initiateCancel()
}

// Stop requests cancellation and then blocks until the tree has fully
// finished, or ctx is done first.
func (m *Manager) Stop(ctx context.Context) error {
	m.Cancel()
	return m.WaitFinished(ctx)
}

// RunTask spawns a regular task under the root scope: a failure
// cancels the whole tree, and the tree does not finish until it joins.
// name is optional; when omitted, a name is derived from fn.
func (m *Manager) RunTask(fn Func, name ...string) {
	m.sup.spawnRegular(fn, optionalName(name))
}

// RunDaemonTask spawns a daemon task: it runs alongside the body and
// regular tasks but is expected to outlive them and to be silently
// cancelled once they all finish. Exiting before the supervision enters
// stopping (the body returning, a cancellation, or a failure) — clean
// or not — is itself a failure; a daemon exit after that point is
// ignored (spec.md §3, §4.3).
func (m *Manager) RunDaemonTask(fn Func, name ...string) {
	m.sup.spawnDaemon(fn, optionalName(name))
}

// RunChildService starts svc as a nested supervision tree sharing this
// Manager's root cancellation scope. The returned Manager is the
// child's own handle: cancelling the parent cancels the child
// transitively, but cancelling the child only affects the child
// (spec.md §5).
func (m *Manager) RunChildService(svc Service, name ...string) *Manager {
	return m.sup.spawnChildService(svc, optionalName(name))
}

// WaitStarted blocks until the service body has been scheduled, or ctx
// is done first.
func (m *Manager) WaitStarted(ctx context.Context) error {
	return m.sup.state.WaitStarted(ctx)
}

// WaitStopping blocks until cancellation has been requested (from any
// source), or ctx is done first.
func (m *Manager) WaitStopping(ctx context.Context) error {
	return m.sup.state.WaitStopping(ctx)
}

// WaitFinished blocks until the whole tree has joined, or ctx is done
// first.
func (m *Manager) WaitFinished(ctx context.Context) error {
	return m.sup.state.WaitFinished(ctx)
}

// IsStarted reports whether the service body has been scheduled.
func (m *Manager) IsStarted() bool { return m.sup.state.IsStarted() }

// IsRunning reports started-but-not-finished.
func (m *Manager) IsRunning() bool { return m.sup.state.IsRunning() }

// IsStopping reports whether cancellation has been requested and the
// tree has not yet fully joined.
func (m *Manager) IsStopping() bool { return m.sup.state.IsStopping() }

// IsCancelled reports whether cancellation was ever requested.
func (m *Manager) IsCancelled() bool { return m.sup.state.IsCancelled() }

// IsFinished reports whether the tree has fully joined.
func (m *Manager) IsFinished() bool { return m.sup.state.IsFinished() }

// DidError reports whether at least one supervised unit failed.
func (m *Manager) DidError() bool { return m.sup.state.DidError() }

func optionalName(name []string) string {
	if len(name) == 0 {
		return ""
	}
	return name[0]
}

// RunService is the one-shot convenience entry point for spec.md
// §4.4's as_service/background_trio_service callers who don't need a
// handle before startup: it builds a Manager, runs svc to completion,
// and returns the aggregated result.
func RunService(ctx context.Context, svc Service, opts ...Option) error {
	return NewManager(svc, opts...).Run(ctx)
}
