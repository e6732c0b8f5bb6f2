package supervisor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadySupervised is returned by a second Run on the same Manager.
// Reuse is tracked per Manager, not per Service instance: wrapping one
// Service in two Managers is not detected.
var ErrAlreadySupervised = errors.New("supervisor: service is already supervised")

// DaemonTaskExit is the failure synthesized when a daemon task
// completes (cleanly or with an error) before the supervisor has
// entered its stopping phase. It is a distinct type, not a generic
// error wrapping a string, so it can be discriminated with errors.As
// even inside a CompositeError (spec.md §9).
type DaemonTaskExit struct {
	// Name is the daemon task's name, as registered with
	// Manager.RunDaemonTask.
	Name string
}

func (e *DaemonTaskExit) Error() string {
	return fmt.Sprintf("Daemon task %s exited", e.Name)
}

// CompositeError is an ordered collection of two or more failures
// aggregated by a Supervisor (spec.md §7). The first entry is always
// the failure that initiated cancellation; later entries follow in
// completion order.
type CompositeError struct {
	Errors []error
}

func (e *CompositeError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d supervised failures: %s", len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap exposes the constituents to errors.Is/errors.As, per the
// multi-error convention introduced in Go 1.20.
func (e *CompositeError) Unwrap() []error {
	return e.Errors
}

// aggregateFailures applies spec.md §4.3's aggregation rule: zero
// failures means a clean run, exactly one is returned verbatim, and
// two or more are wrapped in order into a CompositeError.
func aggregateFailures(failures []error) error {
	switch len(failures) {
	case 0:
		return nil
	case 1:
		return failures[0]
	default:
		return &CompositeError{Errors: append([]error(nil), failures...)}
	}
}
