package supervisor

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"
)

// AsSutureService adapts a one-shot Service onto suture's restart-based
// suture.Service interface (Serve(ctx context.Context) error), so a
// svcsup-supervised subtree can be embedded as a leaf inside a larger
// suture.Supervisor tree such as cartographus's SupervisorTree
// (internal/supervisor/tree.go).
//
// svcsup's own policy is strictly one-shot (spec.md's Non-goals rule
// out restart strategies): once svc finishes, clean or not, it must
// not be restarted by the enclosing suture tree. AsSutureService
// enforces that by returning suture.ErrDoNotRestart whenever svc
// completes without error or ctx has been cancelled (in the latter case
// any aggregated failure is dropped), and otherwise joining the
// aggregated failure with suture.ErrDoNotRestart, so suture sees a real
// error only when one occurred but never restarts svc.
func AsSutureService(name string, svc Service, opts ...Option) suture.Service {
	return &sutureService{name: name, svc: svc, opts: opts}
}

type sutureService struct {
	name string
	svc  Service
	opts []Option
}

func (s *sutureService) Serve(ctx context.Context) error {
	err := RunService(ctx, s.svc, s.opts...)
	if err == nil {
		return suture.ErrDoNotRestart
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return suture.ErrDoNotRestart
	}
	return errors.Join(err, suture.ErrDoNotRestart)
}
