package storage

import (
	"context"
	"fmt"
	"time"

	"car-listing/internal/cars/domain/model"
	"car-listing/internal/cars/domain/repository"
	apperrors "car-listing/internal/shared/errors"
	"car-listing/internal/shared/logger"

	"golang.org/x/sync/errgroup"
)

const releaseUploadAborted = "upload batch failed"

// Manager uploads image batches and releases objects through a store.
// Objects it fails to release are handed to the cleanup queue.
type Manager struct {
	store       repository.AttachmentStore
	queue       repository.CleanupQueue
	concurrency int
	log         logger.Logger
}

// NewManager creates a Manager. concurrency bounds parallel uploads.
func NewManager(store repository.AttachmentStore, queue repository.CleanupQueue, concurrency int, log logger.Logger) *Manager {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = logger.Default()
	}
	return &Manager{
		store:       store,
		queue:       queue,
		concurrency: concurrency,
		log:         log.WithComponent("attachments"),
	}
}

// UploadAll uploads images concurrently and waits for all of them. If any
// upload fails the ones that succeeded are released and an upload error is
// returned.
func (m *Manager) UploadAll(ctx context.Context, images []model.ImageUpload) ([]model.Image, error) {
	results := make([]model.Image, len(images))
	done := make([]bool, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			out, err := m.store.Upload(gctx, img)
			if err != nil {
				return fmt.Errorf("upload %s: %w", img.Filename, err)
			}
			results[i] = out
			done[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var orphans []string
		for i, ok := range done {
			if ok {
				orphans = append(orphans, results[i].PublicID)
			}
		}
		m.log.WithContext(ctx).WithFields(map[string]interface{}{
			"requested": len(images),
			"uploaded":  len(orphans),
		}).Errorf("image upload failed: %v", err)
		m.Release(ctx, releaseUploadAborted, orphans...)
		return nil, apperrors.NewUploadError("Failed to upload images").WithCause(err)
	}
	return results, nil
}

// Release deletes each object. It never fails: a delete error is logged and
// the object is queued for another attempt. The caller's cancellation does
// not stop the release.
func (m *Manager) Release(ctx context.Context, reason string, publicIDs ...string) {
	if len(publicIDs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	log := m.log.WithContext(ctx)

	for _, id := range publicIDs {
		err := m.store.Delete(ctx, id)
		if err == nil {
			continue
		}
		log.WithFields(map[string]interface{}{
			"public_id": id,
			"reason":    reason,
		}).Warnf("image release failed, queueing: %v", err)

		if m.queue == nil {
			continue
		}
		item := model.OrphanedImage{
			PublicID:   id,
			Reason:     reason,
			EnqueuedAt: time.Now().UTC(),
		}
		if qerr := m.queue.Enqueue(ctx, item); qerr != nil {
			log.WithFields(map[string]interface{}{"public_id": id}).Errorf("failed to queue orphaned image: %v", qerr)
		}
	}
}

var _ repository.AttachmentManager = (*Manager)(nil)
