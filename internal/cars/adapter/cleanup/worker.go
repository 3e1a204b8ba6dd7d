package cleanup

import (
	"context"
	"time"

	"car-listing/internal/cars/domain/repository"
	"car-listing/internal/shared/logger"
)

// WorkerConfig controls the polling loop.
type WorkerConfig struct {
	Interval    time.Duration
	Batch       int
	MaxAttempts int
}

// Stats summarizes one pass over the queue.
type Stats struct {
	Released int
	Requeued int
	Dropped  int
}

// Worker retries deletes of orphaned images until they succeed or run out
// of attempts.
type Worker struct {
	queue  repository.CleanupQueue
	store  repository.AttachmentStore
	config WorkerConfig
	log    logger.Logger
}

// NewWorker creates a Worker. Non-positive config values fall back to
// 30s, 20 items and 5 attempts.
func NewWorker(queue repository.CleanupQueue, store repository.AttachmentStore, cfg WorkerConfig, log logger.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 20
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if log == nil {
		log = logger.Default()
	}
	return &Worker{queue: queue, store: store, config: cfg, log: log.WithComponent("cleanup_worker")}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.log.Infof("cleanup worker started (interval %s, batch %d)", w.config.Interval, w.config.Batch)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.log.Errorf("cleanup pass failed: %v", err)
			}
		}
	}
}

// RunOnce processes one batch. Items already taken off the queue are
// deleted or put back even if ctx is cancelled part way through; once it is
// cancelled the rest of the batch is requeued without another attempt.
func (w *Worker) RunOnce(ctx context.Context) (Stats, error) {
	var stats Stats
	items, err := w.queue.Dequeue(ctx, w.config.Batch)
	if err != nil {
		return stats, err
	}
	work := context.WithoutCancel(ctx)

	for _, item := range items {
		if ctx.Err() != nil {
			if qerr := w.queue.Enqueue(work, item); qerr != nil {
				stats.Dropped++
				w.log.WithFields(map[string]interface{}{"public_id": item.PublicID}).
					Errorf("failed to return orphaned image to queue: %v", qerr)
				continue
			}
			stats.Requeued++
			continue
		}

		err := w.store.Delete(work, item.PublicID)
		if err == nil {
			stats.Released++
			continue
		}

		item.Attempts++
		fields := map[string]interface{}{
			"public_id": item.PublicID,
			"attempts":  item.Attempts,
			"reason":    item.Reason,
		}
		if item.Attempts >= w.config.MaxAttempts {
			stats.Dropped++
			w.log.WithFields(fields).Errorf("giving up on orphaned image: %v", err)
			continue
		}
		if qerr := w.queue.Enqueue(work, item); qerr != nil {
			stats.Dropped++
			w.log.WithFields(fields).Errorf("failed to requeue orphaned image: %v", qerr)
			continue
		}
		stats.Requeued++
	}

	if len(items) > 0 {
		w.log.WithFields(map[string]interface{}{
			"released": stats.Released,
			"requeued": stats.Requeued,
			"dropped":  stats.Dropped,
		}).Info("cleanup pass finished")
	}
	return stats, nil
}
