package supervisor

import "context"

// ctxKey is the single attachment point this package uses on a
// context.Context, the same "one key, one struct" trick
// warpfork-go-sup's context.go uses to avoid a long linked list of
// context.WithValue layers for every piece of metadata a task might
// want.
type ctxKey struct{}

type ctxAttachments struct {
	manager *Manager
	name    string
}

func withAttachments(parent context.Context, a ctxAttachments) context.Context {
	return context.WithValue(parent, ctxKey{}, a)
}

func readAttachments(ctx context.Context) ctxAttachments {
	if v, ok := ctx.Value(ctxKey{}).(ctxAttachments); ok {
		return v
	}
	return ctxAttachments{name: "[unmanaged]"}
}

// ManagerFromContext returns the Manager bound to the supervision tree
// that ctx belongs to, or nil if ctx was not derived from one. This is
// this module's realization of spec.md's "service.manager" back
// reference (§3, §9): since Go services are a single Run(ctx) method
// rather than an object with a settable field, the handle travels on
// the context instead, available to the body and to every task it
// spawns without needing to be threaded through every call manually.
func ManagerFromContext(ctx context.Context) *Manager {
	return readAttachments(ctx).manager
}

// TaskNameFromContext returns the name the running task (or service
// body) was registered under, or "[unmanaged]" outside a supervised
// context.
func TaskNameFromContext(ctx context.Context) string {
	return readAttachments(ctx).name
}
