package mocks

import (
	"context"
	"io"

	"docgateway/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

var _ storage.TransientStore = (*MockStore)(nil)

func (m *MockStore) Write(ctx context.Context, name string, r io.Reader, opt storage.WriteOptions) (storage.Object, error) {
	args := m.Called(ctx, name, r, opt)
	if f, ok := args.Get(0).(func(context.Context, string, io.Reader, storage.WriteOptions) storage.Object); ok {
		return f(ctx, name, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.Object), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockStore) List(ctx context.Context) ([]storage.Object, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Object), args.Error(1)
}

func (m *MockStore) Stat(ctx context.Context, name string) (storage.Object, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(storage.Object), args.Error(1)
}

func (m *MockStore) Path(name string) string {
	args := m.Called(name)
	return args.String(0)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
