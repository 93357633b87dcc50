package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/tessera/internal/platform"
)

// OutputSink receives each polled output list. The compositor diffs it
// against what it knows.
type OutputSink func(ctx context.Context, outputs []platform.Output) error

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically polls the backend for outputs and forwards the
// list, covering backends that do not report hotplug events.
type Reconciler struct {
	interval time.Duration
	backend  platform.Backend
	sink     OutputSink
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, backend platform.Backend, sink OutputSink) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		backend:  backend,
		sink:     sink,
		logger:   logger,
	}
}

func (r *Reconciler) String() string { return "output-reconciler" }

// Serve runs an immediate pass and then one per interval until ctx is
// canceled.
func (r *Reconciler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)
	r.ReconcileNow(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return ctx.Err()
		case <-ticker.C:
			r.ReconcileNow(ctx)
		}
	}
}

// ReconcileNow performs a single reconciliation pass.
func (r *Reconciler) ReconcileNow(ctx context.Context) {
	// Recover from panics in the backend so the supervisor does not have to.
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", fmt.Sprint(err))
		}
	}()

	outputs, err := r.backend.Outputs()
	if err != nil {
		r.logger.Warn("reconciler: failed to list outputs", "error", err)
		return
	}
	if err := r.sink(ctx, outputs); err != nil {
		r.logger.Debug("reconciler: output list not delivered", "error", err)
	}
}
