package retention

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type Cleaner interface {
	CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Worker periodically deletes audit records older than the retention window.
type Worker struct {
	cleaner   Cleaner
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewWorker(cleaner Cleaner, retention, interval time.Duration) *Worker {
	return &Worker{
		cleaner:   cleaner,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Run cleans up once immediately, then on every tick until ctx is cancelled.
// A zero retention or interval disables cleanup. Failed runs are logged and
// retried on the next tick.
func (w *Worker) Run(ctx context.Context) error {
	if w.retention <= 0 || w.interval <= 0 {
		log.Info("Audit retention cleanup disabled")
		<-ctx.Done()
		return nil
	}

	log.WithFields(log.Fields{
		"retention": w.retention,
		"interval":  w.interval,
	}).Info("Audit retention worker started")

	w.runLogged(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Audit retention worker stopped")
			return nil
		case <-ticker.C:
			w.runLogged(ctx)
		}
	}
}

func (w *Worker) runLogged(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil {
		log.WithError(err).Warn("Audit retention run failed")
	}
}

func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().UTC().Add(-w.retention)
	return w.cleaner.CleanupOlderThan(ctx, cutoff)
}
