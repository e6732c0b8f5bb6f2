package supervisor

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

// TestTaskRegistryLifecycle validates registration, completion, and
// the live-set accounting the Supervisor's join loop depends on.
func TestTaskRegistryLifecycle(t *testing.T) {
	t.Run("register increases live count", func(t *testing.T) {
		r := NewTaskRegistry()
		rec := r.Register(kindRegular, "probe", uuid.Nil, func(ctx context.Context) error { return nil })
		if r.LiveCount() != 1 {
			t.Fatalf("expected live count 1, got %d", r.LiveCount())
		}
		if rec.name != "probe" {
			t.Fatalf("expected name %q, got %q", "probe", rec.name)
		}
	})

	t.Run("complete decreases live count", func(t *testing.T) {
		r := NewTaskRegistry()
		rec := r.Register(kindRegular, "probe", uuid.Nil, func(ctx context.Context) error { return nil })
		r.Complete(rec.id)
		if r.LiveCount() != 0 {
			t.Fatalf("expected live count 0, got %d", r.LiveCount())
		}
	})

	t.Run("complete is idempotent", func(t *testing.T) {
		r := NewTaskRegistry()
		rec := r.Register(kindRegular, "probe", uuid.Nil, func(ctx context.Context) error { return nil })
		r.Complete(rec.id)
		r.Complete(rec.id)
		r.Complete(uuid.New())
		if r.LiveCount() != 0 {
			t.Fatalf("expected live count 0 after redundant completes, got %d", r.LiveCount())
		}
	})

	t.Run("empty name falls back to function name", func(t *testing.T) {
		r := NewTaskRegistry()
		rec := r.Register(kindDaemon, "", uuid.Nil, exampleNamedFunc)
		if rec.name == "" {
			t.Fatal("expected a derived, non-empty name")
		}
	})

	t.Run("snapshot reflects only live records", func(t *testing.T) {
		r := NewTaskRegistry()
		a := r.Register(kindRegular, "a", uuid.Nil, func(ctx context.Context) error { return nil })
		r.Register(kindRegular, "b", uuid.Nil, func(ctx context.Context) error { return nil })
		r.Complete(a.id)

		snap := r.SnapshotLive()
		if len(snap) != 1 || snap[0].name != "b" {
			t.Fatalf("expected only %q live, got %v", "b", snap)
		}
	})
}

// TestTaskKindString validates the diagnostic labels used in log
// lines and error messages.
func TestTaskKindString(t *testing.T) {
	cases := map[taskKind]string{
		kindBody:         "body",
		kindRegular:      "regular",
		kindDaemon:       "daemon",
		kindChildService: "child-service",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("taskKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func exampleNamedFunc(ctx context.Context) error { return nil }
