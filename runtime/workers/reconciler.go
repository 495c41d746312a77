package workers

import (
	"context"
	"log/slog"
	"time"

	"whisper-bridge/session"
)

// ReconcilerWorker runs the coordinator's reconciliation cycle on a fixed
// period. The loop is strictly sequential: a tick must finish before the
// next one is taken from the ticker, so ticks for one session never
// overlap. Errors do not stop the loop; the next tick is the sole retry
// mechanism, which avoids retry storms by construction.
type ReconcilerWorker struct {
	coordinator *session.Coordinator
	interval    time.Duration
	log         *slog.Logger
}

func NewReconcilerWorker(coordinator *session.Coordinator, interval time.Duration, log *slog.Logger) *ReconcilerWorker {
	return &ReconcilerWorker{coordinator: coordinator, interval: interval, log: log}
}

func (w *ReconcilerWorker) Run(ctx context.Context) error {
	w.log.Info("Starting reconciler", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping reconciler")
			return ctx.Err()
		case <-ticker.C:
			if err := w.coordinator.Reconcile(ctx); err != nil {
				w.log.Warn("Reconciliation cycle failed", "err", err)
			}
		}
	}
}
