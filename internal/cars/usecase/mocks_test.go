package usecase_test

import (
	"context"
	"io"

	"car-listing/internal/cars/domain/model"
	apperrors "car-listing/internal/shared/errors"
	"car-listing/internal/shared/eventbus"
	"car-listing/internal/shared/logger"

	"github.com/stretchr/testify/mock"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func quietLogger() logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func pngUploads(n int) []model.ImageUpload {
	out := make([]model.ImageUpload, n)
	for i := range out {
		out[i] = model.NewImageUpload("car.png", pngHeader)
	}
	return out
}

func storedImages(ids ...string) []model.Image {
	out := make([]model.Image, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Image{PublicID: id, URL: "http://store/car-images/" + id})
	}
	return out
}

type mockCarRepository struct {
	mock.Mock
}

func (m *mockCarRepository) Create(ctx context.Context, car *model.Car) error {
	args := m.Called(ctx, car)
	if args.Error(0) == nil && car.ID == "" {
		car.ID = "car-1"
	}
	return args.Error(0)
}

func (m *mockCarRepository) GetByID(ctx context.Context, id string) (*model.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Car).Clone(), args.Error(1)
}

func (m *mockCarRepository) List(ctx context.Context, q model.ListQuery) ([]*model.Car, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Car), args.Error(1)
}

func (m *mockCarRepository) Page(ctx context.Context, q model.ListQuery) ([]*model.Car, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.Car), args.Get(1).(int64), args.Error(2)
}

func (m *mockCarRepository) Replace(ctx context.Context, car *model.Car) error {
	return m.Called(ctx, car).Error(0)
}

func (m *mockCarRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockAttachments struct {
	mock.Mock
}

func (m *mockAttachments) UploadAll(ctx context.Context, images []model.ImageUpload) ([]model.Image, error) {
	args := m.Called(ctx, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Image), args.Error(1)
}

func (m *mockAttachments) Release(ctx context.Context, reason string, publicIDs ...string) {
	m.Called(ctx, reason, publicIDs)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAndForget(ctx context.Context, event eventbus.Event) {
	m.Called(ctx, event)
}

// ownerPolicy allows only the car's owner.
type ownerPolicy struct{}

func (ownerPolicy) Authorize(_ context.Context, subjectID string, car *model.Car) error {
	if subjectID == "" || car.Owner != subjectID {
		return apperrors.ErrForbidden
	}
	return nil
}
