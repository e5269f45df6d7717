package imagestore

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockStore 是 Store 的 mock 实现
type MockStore struct {
	mock.Mock
}

// NewMockStore 创建新的 MockStore
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	args := m.Called(ctx, key, body, contentType)
	return args.Error(0)
}

func (m *MockStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ObjectInfo), args.Error(1)
}

var _ Store = (*MockStore)(nil)
