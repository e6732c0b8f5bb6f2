package supervisor

import "context"

// Service is a user-provided long-lived unit of work. Run receives a
// context carrying this supervision's Manager (retrievable via
// ManagerFromContext) and is cancelled when the supervisor begins
// shutting down.
//
// A Service instance is single-use. A second Run on the same Manager
// returns ErrAlreadySupervised; supervising the same instance under a
// second Manager is not detected.
type Service interface {
	Run(ctx context.Context) error
}

// Func adapts a plain function into the shape Service.Run expects.
type Func func(ctx context.Context) error

// ServiceFunc wraps f as a Service, the Go equivalent of spec.md §4.4's
// as_service adapter for plain async callables. The returned Service's
// Run simply invokes f.
func ServiceFunc(f Func) Service {
	return funcService{f}
}

type funcService struct {
	fn Func
}

func (s funcService) Run(ctx context.Context) error {
	return s.fn(ctx)
}
