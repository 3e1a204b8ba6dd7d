package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"car-listing/internal/cars/domain/model"
	"car-listing/internal/cars/domain/repository"
	"car-listing/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

// RedisQueue keeps orphaned images in a Redis list, oldest first.
type RedisQueue struct {
	client *redis.Client
	key    string
	log    logger.Logger
}

// NewRedisQueue creates a queue backed by the list at key.
func NewRedisQueue(client *redis.Client, key string, log logger.Logger) *RedisQueue {
	if log == nil {
		log = logger.Default()
	}
	return &RedisQueue{client: client, key: key, log: log.WithComponent("cleanup_queue")}
}

// Enqueue appends item to the tail of the list.
func (q *RedisQueue) Enqueue(ctx context.Context, item model.OrphanedImage) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal orphaned image: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push to %s: %w", q.key, err)
	}
	return nil
}

// Dequeue pops up to max items from the head of the list. Entries that do
// not decode are logged and discarded.
func (q *RedisQueue) Dequeue(ctx context.Context, max int) ([]model.OrphanedImage, error) {
	if max <= 0 {
		return nil, nil
	}
	raw, err := q.client.LPopCount(ctx, q.key, max).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from %s: %w", q.key, err)
	}

	items := make([]model.OrphanedImage, 0, len(raw))
	for _, r := range raw {
		var item model.OrphanedImage
		if err := json.Unmarshal([]byte(r), &item); err != nil {
			q.log.WithFields(map[string]interface{}{"entry": r}).Warnf("dropping malformed queue entry: %v", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Len returns the number of queued items.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

var _ repository.CleanupQueue = (*RedisQueue)(nil)
