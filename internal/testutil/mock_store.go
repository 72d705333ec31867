//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/squidplay/squidplay/internal/store"
)

// MockStore 实现 store.Store 的 testify mock
type MockStore struct {
	mock.Mock
}

var _ store.Store = (*MockStore)(nil)

func (m *MockStore) Get(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStore) Set(ctx context.Context, path string, value any) error {
	args := m.Called(ctx, path, value)
	return args.Error(0)
}

func (m *MockStore) Update(ctx context.Context, path string, partial map[string]any) error {
	args := m.Called(ctx, path, partial)
	return args.Error(0)
}

func (m *MockStore) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockStore) Append(ctx context.Context, path string, value any) error {
	args := m.Called(ctx, path, value)
	return args.Error(0)
}

func (m *MockStore) ListAppended(ctx context.Context, path string) ([][]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]byte), args.Error(1)
}

func (m *MockStore) Subscribe(ctx context.Context, path string, onChange func(store.Event)) (store.UnsubscribeFunc, error) {
	args := m.Called(ctx, path, onChange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(store.UnsubscribeFunc), args.Error(1)
}
