package http_test

import (
	"context"
	"encoding/json"
	"net/http"

	"car-listing/internal/cars/domain/model"
	apperrors "car-listing/internal/shared/errors"
	"car-listing/internal/shared/httputil"
	"car-listing/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
)

type mockCarUsecase struct {
	mock.Mock
}

func (m *mockCarUsecase) Create(ctx context.Context, owner string, in model.CreateInput) (*model.Car, error) {
	args := m.Called(ctx, owner, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Car), args.Error(1)
}

func (m *mockCarUsecase) List(ctx context.Context, owner, search string) ([]*model.Car, error) {
	args := m.Called(ctx, owner, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Car), args.Error(1)
}

func (m *mockCarUsecase) Page(ctx context.Context, q model.ListQuery) (*model.CarPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CarPage), args.Error(1)
}

func (m *mockCarUsecase) Get(ctx context.Context, carID, owner string) (*model.Car, error) {
	args := m.Called(ctx, carID, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Car), args.Error(1)
}

func (m *mockCarUsecase) Update(ctx context.Context, carID, owner string, in model.UpdateInput) (*model.Car, error) {
	args := m.Called(ctx, carID, owner, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Car), args.Error(1)
}

func (m *mockCarUsecase) Delete(ctx context.Context, carID, owner string) error {
	return m.Called(ctx, carID, owner).Error(0)
}

const testUserHeader = "X-Test-User"

// headerAuth stands in for the auth gate: the caller is whoever the
// X-Test-User header names.
func headerAuth(c *fiber.Ctx) error {
	userID := c.Get(testUserHeader)
	if userID == "" {
		return httputil.Fail(c, nil, apperrors.NewAuthenticationError("Please login to access this resource"))
	}
	c.SetUserContext(utils.WithUserID(c.UserContext(), userID))
	return c.Next()
}

func decodeJSON(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}
