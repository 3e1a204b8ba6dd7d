package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"car-listing/internal/cars/domain/model"
	"car-listing/internal/cars/domain/repository"
	apperrors "car-listing/internal/shared/errors"
	"car-listing/internal/shared/eventbus"
	"car-listing/internal/shared/logger"
)

// Client-facing messages.
const (
	msgNotAuthorized   = "Not authorized to access this car"
	msgImageCount      = "Please provide 1-10 images"
	msgTitleRequired   = "Please enter car title"
	msgDescRequired    = "Please enter car description"
	msgOnlyImages      = "Only image files are allowed"
	msgUploadFailed    = "Failed to upload images"
	releaseCreateAbort = "create aborted"
	releaseUpdateAbort = "update aborted"
	releaseRemoved     = "removed from car"
	releaseCarDeleted  = "car deleted"
)

// CarUsecaseInterface defines the car record operations. Every operation is
// scoped to the calling owner.
type CarUsecaseInterface interface {
	Create(ctx context.Context, owner string, in model.CreateInput) (*model.Car, error)
	List(ctx context.Context, owner, search string) ([]*model.Car, error)
	Page(ctx context.Context, q model.ListQuery) (*model.CarPage, error)
	Get(ctx context.Context, carID, owner string) (*model.Car, error)
	Update(ctx context.Context, carID, owner string, in model.UpdateInput) (*model.Car, error)
	Delete(ctx context.Context, carID, owner string) error
}

// CarUsecase implements CarUsecaseInterface.
type CarUsecase struct {
	repo          repository.CarRepository
	attachments   repository.AttachmentManager
	policy        repository.AccessPolicy
	events        repository.EventPublisher
	maxImageBytes int64
	now           func() time.Time
	log           logger.Logger
}

// NewCarUsecase creates a CarUsecase. events may be nil.
func NewCarUsecase(
	repo repository.CarRepository,
	attachments repository.AttachmentManager,
	policy repository.AccessPolicy,
	events repository.EventPublisher,
	maxImageBytes int64,
	log logger.Logger,
) *CarUsecase {
	if log == nil {
		log = logger.Default()
	}
	return &CarUsecase{
		repo:          repo,
		attachments:   attachments,
		policy:        policy,
		events:        events,
		maxImageBytes: maxImageBytes,
		now:           func() time.Time { return time.Now().UTC() },
		log:           log.WithComponent("cars"),
	}
}

func validateTitle(title string, ve *apperrors.ValidationErrors) {
	switch {
	case title == "":
		ve.Add("title", msgTitleRequired, nil)
	case model.TitleLength(title) > model.MaxTitleLength:
		ve.Add("title", fmt.Sprintf("Title cannot exceed %d characters", model.MaxTitleLength), nil)
	}
}

func (uc *CarUsecase) validateImages(images []model.ImageUpload, ve *apperrors.ValidationErrors) {
	for _, img := range images {
		if !img.IsImage() {
			ve.Add("images", msgOnlyImages, img.Filename)
			return
		}
		if uc.maxImageBytes > 0 && img.Size() > uc.maxImageBytes {
			ve.Add("images", fmt.Sprintf("Image %s exceeds the %d byte limit", img.Filename, uc.maxImageBytes), img.Filename)
			return
		}
	}
}

// Create validates the input, uploads every image and stores the car.
// Nothing is uploaded unless the input is valid.
func (uc *CarUsecase) Create(ctx context.Context, owner string, in model.CreateInput) (*model.Car, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)

	ve := apperrors.NewValidationErrors()
	if n := len(in.Images); n < model.MinImages || n > model.MaxImages {
		ve.Add("images", msgImageCount, n)
	}
	validateTitle(title, ve)
	if description == "" {
		ve.Add("description", msgDescRequired, nil)
	}
	uc.validateImages(in.Images, ve)
	if ve.HasErrors() {
		return nil, ve.ToAppError()
	}

	images, err := uc.attachments.UploadAll(ctx, in.Images)
	if err != nil {
		return nil, uploadError(err)
	}

	now := uc.now()
	car := &model.Car{
		Title:       title,
		Description: description,
		Images:      images,
		Tags:        in.Tags.Normalize(),
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, car); err != nil {
		uc.attachments.Release(ctx, releaseCreateAbort, imageIDs(images)...)
		return nil, fmt.Errorf("failed to create car: %w", err)
	}

	uc.log.WithContext(ctx).WithFields(map[string]interface{}{
		"car_id": car.ID,
		"images": len(images),
	}).Info("car created")
	uc.publish(ctx, eventbus.EventTypeCarCreated, car)
	return car, nil
}

// List returns all of owner's cars matching search, newest first.
func (uc *CarUsecase) List(ctx context.Context, owner, search string) ([]*model.Car, error) {
	q := model.ListQuery{Owner: owner, Search: strings.TrimSpace(search)}
	cars, err := uc.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	if cars == nil {
		cars = []*model.Car{}
	}
	return cars, nil
}

// Page returns one page of owner's cars.
func (uc *CarUsecase) Page(ctx context.Context, q model.ListQuery) (*model.CarPage, error) {
	q = q.Normalize()
	cars, total, err := uc.repo.Page(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to page cars: %w", err)
	}
	return model.NewCarPage(cars, total, q), nil
}

// Get returns the car if owner may access it.
func (uc *CarUsecase) Get(ctx context.Context, carID, owner string) (*model.Car, error) {
	car, err := uc.repo.GetByID(ctx, carID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFoundError("Car").WithCause(err)
		}
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	if err := uc.policy.Authorize(ctx, owner, car); err != nil {
		uc.log.WithContext(ctx).WithFields(map[string]interface{}{"car_id": carID}).Warnf("access denied: %v", err)
		return nil, apperrors.NewAuthorizationError(msgNotAuthorized).WithCause(err)
	}
	return car, nil
}

// Update merges the supplied fields into the car. The resulting image set is
// checked before anything is uploaded or released.
func (uc *CarUsecase) Update(ctx context.Context, carID, owner string, in model.UpdateInput) (*model.Car, error) {
	car, err := uc.Get(ctx, carID, owner)
	if err != nil {
		return nil, err
	}
	if in.Empty() {
		return car, nil
	}

	ve := apperrors.NewValidationErrors()
	var title, description string
	if in.Patch.Title != nil {
		title = strings.TrimSpace(*in.Patch.Title)
		validateTitle(title, ve)
	}
	if in.Patch.Description != nil {
		description = strings.TrimSpace(*in.Patch.Description)
		if description == "" {
			ve.Add("description", msgDescRequired, nil)
		}
	}

	kept, removed := partitionImages(car.Images, in.DeletedImageIDs)
	if n := len(kept) + len(in.NewImages); n < model.MinImages || n > model.MaxImages {
		ve.Add("images", msgImageCount, n)
	}
	uc.validateImages(in.NewImages, ve)
	if ve.HasErrors() {
		return nil, ve.ToAppError()
	}

	var uploaded []model.Image
	if len(in.NewImages) > 0 {
		uploaded, err = uc.attachments.UploadAll(ctx, in.NewImages)
		if err != nil {
			return nil, uploadError(err)
		}
	}

	updated := car.Clone()
	if in.Patch.Title != nil {
		updated.Title = title
	}
	if in.Patch.Description != nil {
		updated.Description = description
	}
	if in.Patch.Tags != nil {
		updated.Tags = in.Patch.Tags.Normalize()
	}
	updated.Images = append(kept, uploaded...)
	updated.UpdatedAt = uc.now()

	if err := uc.repo.Replace(ctx, updated); err != nil {
		uc.attachments.Release(ctx, releaseUpdateAbort, imageIDs(uploaded)...)
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFoundError("Car").WithCause(err)
		}
		return nil, fmt.Errorf("failed to update car: %w", err)
	}
	uc.attachments.Release(ctx, releaseRemoved, imageIDs(removed)...)

	uc.log.WithContext(ctx).WithFields(map[string]interface{}{
		"car_id":  updated.ID,
		"added":   len(uploaded),
		"removed": len(removed),
	}).Info("car updated")
	uc.publish(ctx, eventbus.EventTypeCarUpdated, updated)
	return updated, nil
}

// Delete removes the record, then releases its images.
func (uc *CarUsecase) Delete(ctx context.Context, carID, owner string) error {
	car, err := uc.Get(ctx, carID, owner)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, car.ID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFoundError("Car").WithCause(err)
		}
		return fmt.Errorf("failed to delete car: %w", err)
	}
	uc.attachments.Release(ctx, releaseCarDeleted, car.ImageIDs()...)

	uc.log.WithContext(ctx).WithFields(map[string]interface{}{"car_id": car.ID}).Info("car deleted")
	uc.publishDeleted(ctx, car)
	return nil
}

// partitionImages splits images into those kept and those named in deleteIDs.
// Ids that match no image are ignored.
func partitionImages(images []model.Image, deleteIDs []string) (kept, removed []model.Image) {
	del := make(map[string]struct{}, len(deleteIDs))
	for _, id := range deleteIDs {
		del[id] = struct{}{}
	}
	kept = make([]model.Image, 0, len(images))
	for _, img := range images {
		if _, ok := del[img.PublicID]; ok {
			removed = append(removed, img)
			continue
		}
		kept = append(kept, img)
	}
	return kept, removed
}

func imageIDs(images []model.Image) []string {
	ids := make([]string, 0, len(images))
	for _, img := range images {
		ids = append(ids, img.PublicID)
	}
	return ids
}

func uploadError(err error) error {
	if apperrors.IsUpload(err) {
		return err
	}
	return apperrors.NewUploadError(msgUploadFailed).WithCause(err)
}

func (uc *CarUsecase) publish(ctx context.Context, eventType string, car *model.Car) {
	if uc.events == nil {
		return
	}
	uc.events.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(eventType, model.CarEvent{
		Type:      eventType,
		CarID:     car.ID,
		Owner:     car.Owner,
		Car:       car.Clone(),
		Timestamp: uc.now(),
	}, "cars"))
}

func (uc *CarUsecase) publishDeleted(ctx context.Context, car *model.Car) {
	if uc.events == nil {
		return
	}
	uc.events.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(eventbus.EventTypeCarDeleted, model.CarEvent{
		Type:      eventbus.EventTypeCarDeleted,
		CarID:     car.ID,
		Owner:     car.Owner,
		Timestamp: uc.now(),
	}, "cars"))
}

// Ensure CarUsecase implements CarUsecaseInterface
var _ CarUsecaseInterface = (*CarUsecase)(nil)
