package repository

import (
	"context"

	"car-listing/internal/cars/domain/model"
	"car-listing/internal/shared/eventbus"
)

// CarRepository persists car records.
type CarRepository interface {
	// Create stores car and sets its ID.
	Create(ctx context.Context, car *model.Car) error
	// GetByID returns errors.ErrNotFound for malformed or unknown ids.
	GetByID(ctx context.Context, id string) (*model.Car, error)
	// List returns every car of q.Owner matching q.Search, newest first.
	List(ctx context.Context, q model.ListQuery) ([]*model.Car, error)
	// Page returns one page of List plus the total match count.
	Page(ctx context.Context, q model.ListQuery) ([]*model.Car, int64, error)
	// Replace overwrites the mutable fields of car.
	Replace(ctx context.Context, car *model.Car) error
	// Delete removes the record. Returns errors.ErrNotFound if it was already gone.
	Delete(ctx context.Context, id string) error
}

// AttachmentStore is an object store for car images.
type AttachmentStore interface {
	Upload(ctx context.Context, img model.ImageUpload) (model.Image, error)
	Delete(ctx context.Context, publicID string) error
	Ping(ctx context.Context) error
}

// CleanupQueue holds images whose release failed.
type CleanupQueue interface {
	Enqueue(ctx context.Context, item model.OrphanedImage) error
	// Dequeue pops up to max items. An empty queue returns no items and no error.
	Dequeue(ctx context.Context, max int) ([]model.OrphanedImage, error)
	Len(ctx context.Context) (int64, error)
}

// AccessPolicy decides whether subjectID may act on car.
type AccessPolicy interface {
	Authorize(ctx context.Context, subjectID string, car *model.Car) error
}

// EventPublisher delivers car events to subscribers without blocking the caller.
type EventPublisher interface {
	PublishAndForget(ctx context.Context, event eventbus.Event)
}

// AttachmentManager uploads batches of images and releases objects that are
// no longer referenced.
type AttachmentManager interface {
	// UploadAll stores every image or none of them. Results keep input order.
	UploadAll(ctx context.Context, images []model.ImageUpload) ([]model.Image, error)
	// Release deletes objects best-effort. Failures are queued for retry.
	Release(ctx context.Context, reason string, publicIDs ...string)
}
