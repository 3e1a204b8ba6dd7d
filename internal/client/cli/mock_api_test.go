package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	authmodel "car-listing/internal/auth/domain/model"
	"car-listing/internal/cars/domain/model"
	"car-listing/internal/client/api"
	"car-listing/internal/client/session"
	"car-listing/internal/shared/logger"

	"github.com/stretchr/testify/mock"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Register(ctx context.Context, name, email, password string) (*authmodel.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authmodel.User), args.Error(1)
}

func (m *mockAPI) Login(ctx context.Context, email, password string) (*authmodel.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authmodel.User), args.Error(1)
}

func (m *mockAPI) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockAPI) Me(ctx context.Context) (*authmodel.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authmodel.User), args.Error(1)
}

func (m *mockAPI) ListCars(ctx context.Context, search string) ([]*model.Car, error) {
	args := m.Called(ctx, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Car), args.Error(1)
}

func (m *mockAPI) PageCars(ctx context.Context, page, limit int, search string) (*model.CarPage, error) {
	args := m.Called(ctx, page, limit, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CarPage), args.Error(1)
}

func (m *mockAPI) GetCar(ctx context.Context, id string) (*model.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Car), args.Error(1)
}

func (m *mockAPI) CreateCar(ctx context.Context, form api.CarForm) (*model.Car, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Car), args.Error(1)
}

func (m *mockAPI) UpdateCar(ctx context.Context, id string, changes api.CarChanges) (*model.Car, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Car), args.Error(1)
}

func (m *mockAPI) DeleteCar(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *mockAPI) WatchEvents(ctx context.Context, fn func(model.CarEvent)) error {
	return m.Called(ctx, fn).Error(0)
}

// testApp builds an App reading input and writing to the returned buffer.
func testApp(input string) (*App, *mockAPI, *bytes.Buffer) {
	m := &mockAPI{}
	out := &bytes.Buffer{}
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	return newApp(m, session.New(nil), strings.NewReader(input), out, log), m, out
}

// stubPassword makes GetPassword return pw for the duration of the test.
func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { readPassword = orig })
}
