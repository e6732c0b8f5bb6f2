package supervisor

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// taskKind classifies a task record per spec.md §3.
type taskKind int

const (
	kindBody taskKind = iota
	kindRegular
	kindDaemon
	kindChildService
)

func (k taskKind) String() string {
	switch k {
	case kindBody:
		return "body"
	case kindRegular:
		return "regular"
	case kindDaemon:
		return "daemon"
	case kindChildService:
		return "child-service"
	default:
		return "unknown"
	}
}

// taskRecord is the per-spawned-unit bookkeeping entry described in
// spec.md §3: a stable id, a human-readable name, a kind, and a parent
// link. The completion outcome itself is not stored on the record —
// it travels back to the Supervisor on outcomeCh and is recorded there
// (spec.md invariant 4: no record is dropped before its completion is
// observed).
type taskRecord struct {
	id     uuid.UUID
	name   string
	kind   taskKind
	parent uuid.UUID
}

// TaskRegistry tracks the live set of task records for one Supervisor.
// It is the sole source of truth for "are there still tasks to join?"
// (spec.md §4.2). Registration must be atomic with scheduling the
// underlying goroutine, so Register both allocates the record and
// returns it in one call; the caller is expected to launch the
// goroutine immediately afterward without any intervening suspension.
type TaskRegistry struct {
	mu   sync.Mutex
	live map[uuid.UUID]*taskRecord
}

// NewTaskRegistry returns an empty registry.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{live: make(map[uuid.UUID]*taskRecord)}
}

// Register adds a new pending record and returns it. name, if empty,
// is derived from fn's identity the way warpfork-go-sup's bindTask
// falls back to a reflect-derived name when a Task doesn't implement
// NamedTask.
func (r *TaskRegistry) Register(kind taskKind, name string, parent uuid.UUID, fn any) *taskRecord {
	if name == "" {
		name = funcName(fn)
	}
	rec := &taskRecord{id: uuid.New(), name: name, kind: kind, parent: parent}
	r.mu.Lock()
	r.live[rec.id] = rec
	r.mu.Unlock()
	return rec
}

// Complete removes a record from the live set. Idempotent: completing
// an id that is no longer present (or was never present) is a no-op,
// which matters because the registry must never panic on a duplicate
// or late report.
func (r *TaskRegistry) Complete(id uuid.UUID) {
	r.mu.Lock()
	delete(r.live, id)
	r.mu.Unlock()
}

// SnapshotLive returns the records still awaiting completion, for
// diagnostic use (e.g. logging what's still outstanding at shutdown).
func (r *TaskRegistry) SnapshotLive() []*taskRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*taskRecord, 0, len(r.live))
	for _, rec := range r.live {
		out = append(out, rec)
	}
	return out
}

// LiveCount returns the number of records still awaiting completion.
func (r *TaskRegistry) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// funcName derives a readable name for an unnamed task function.
// Anonymous closures still get a package-qualified name from
// runtime.FuncForPC; a func that FuncForPC cannot resolve falls back
// to a pointer-identity string, and a non-func value is named by its
// type.
func funcName(fn any) string {
	if fn == nil {
		return "<unnamed>"
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Sprintf("%T", fn)
	}
	if rf := runtime.FuncForPC(v.Pointer()); rf != nil {
		return rf.Name()
	}
	return fmt.Sprintf("func@%p", fn)
}
