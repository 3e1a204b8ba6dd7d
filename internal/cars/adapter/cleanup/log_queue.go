package cleanup

import (
	"context"

	"car-listing/internal/cars/domain/model"
	"car-listing/internal/cars/domain/repository"
	"car-listing/internal/shared/logger"
)

// LogQueue is used when no Redis is configured. It records each orphan in
// the log and keeps nothing, so the worker never sees an item.
type LogQueue struct {
	log logger.Logger
}

func NewLogQueue(log logger.Logger) *LogQueue {
	if log == nil {
		log = logger.Default()
	}
	return &LogQueue{log: log.WithComponent("cleanup_queue")}
}

func (q *LogQueue) Enqueue(ctx context.Context, item model.OrphanedImage) error {
	q.log.WithContext(ctx).WithFields(map[string]interface{}{
		"public_id": item.PublicID,
		"reason":    item.Reason,
		"attempts":  item.Attempts,
	}).Error("orphaned image needs manual removal")
	return nil
}

func (q *LogQueue) Dequeue(context.Context, int) ([]model.OrphanedImage, error) {
	return nil, nil
}

func (q *LogQueue) Len(context.Context) (int64, error) {
	return 0, nil
}

var _ repository.CleanupQueue = (*LogQueue)(nil)
