package daemon

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/platform/platformtest"
	"github.com/thejerf/suture/v4"
)

func TestReconcileNowForwardsOutputs(t *testing.T) {
	backend := &platformtest.Backend{List: []platform.Output{
		platformtest.Output("eDP-1", 1920, 1080),
		platformtest.Output("DP-1", 2560, 1440),
	}}
	var got []platform.Output
	r := NewReconciler(ReconcilerConfig{}, backend, func(_ context.Context, outs []platform.Output) error {
		got = outs
		return nil
	})

	r.ReconcileNow(context.Background())
	if len(got) != 2 || got[1].Name != "DP-1" {
		t.Fatalf("sink got %+v", got)
	}

	backend.Err = errors.New("randr unavailable")
	got = nil
	r.ReconcileNow(context.Background())
	if got != nil {
		t.Fatalf("sink called despite backend error: %+v", got)
	}
}

func TestReconcilerServeStopsOnCancel(t *testing.T) {
	backend := &platformtest.Backend{List: []platform.Output{platformtest.Output("DP-1", 1920, 1080)}}
	calls := make(chan struct{}, 16)
	r := NewReconciler(ReconcilerConfig{Interval: 10 * time.Millisecond}, backend, func(context.Context, []platform.Output) error {
		calls <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("reconciler pass %d did not run", i)
		}
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve did not stop")
	}
}

func TestSpawner(t *testing.T) {
	s := NewSpawner([]string{"TESSERA_TEST=1"}, nil)
	if err := s.Spawn([]string{"true"}); err != nil {
		t.Fatalf("Spawn(true): %v", err)
	}
	if err := s.Spawn([]string{"/nonexistent/tessera-test-binary"}); err == nil {
		t.Fatalf("expected error for missing binary")
	}
	if err := s.Spawn(nil); err == nil {
		t.Fatalf("expected error for empty argv")
	}
}

func TestSanitizeError(t *testing.T) {
	live := context.Background()
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	if err := SanitizeError(live, nil); err != nil {
		t.Fatalf("nil error changed to %v", err)
	}
	plain := errors.New("listen failed")
	if err := SanitizeError(live, plain); err != plain {
		t.Fatalf("plain error changed to %v", err)
	}
	if err := SanitizeError(canceled, plain); !errors.Is(err, context.Canceled) {
		t.Fatalf("done context should report its own error, got %v", err)
	}

	inner := fmt.Errorf("dial: %w", context.DeadlineExceeded)
	err := SanitizeError(live, inner)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("context error leaked through a live context: %v", err)
	}
	if err.Error() != inner.Error() {
		t.Fatalf("message changed: %q", err.Error())
	}

	stop := fmt.Errorf("%w: %w", suture.ErrDoNotRestart, context.Canceled)
	if err := SanitizeError(live, stop); !errors.Is(err, suture.ErrDoNotRestart) {
		t.Fatalf("ErrDoNotRestart lost: %v", err)
	}
}

func TestServiceFunc(t *testing.T) {
	ran := false
	svc := NewServiceFunc("probe", func(context.Context) error {
		ran = true
		return nil
	})
	if svc.String() != "probe" {
		t.Fatalf("String() = %q", svc.String())
	}
	if err := svc.Serve(context.Background()); err != nil || !ran {
		t.Fatalf("Serve = %v, ran = %v", err, ran)
	}
}
