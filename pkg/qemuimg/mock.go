package qemuimg

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient 是 QemuImgClient 的 mock 实现
// 用于测试，不需要真实的 qemu-img 命令
type MockClient struct {
	mock.Mock
}

// NewMockClient 创建新的 MockClient
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Info 实现 QemuImgClient 接口
func (m *MockClient) Info(ctx context.Context, imagePath string) (*ImageInfo, error) {
	args := m.Called(ctx, imagePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ImageInfo), args.Error(1)
}

// Convert 实现 QemuImgClient 接口
func (m *MockClient) Convert(ctx context.Context, inputFormat, outputFormat, inputFile, outputFile string) error {
	args := m.Called(ctx, inputFormat, outputFormat, inputFile, outputFile)
	return args.Error(0)
}

// Check 实现 QemuImgClient 接口
func (m *MockClient) Check(ctx context.Context, imagePath, format string) error {
	args := m.Called(ctx, imagePath, format)
	return args.Error(0)
}

var _ QemuImgClient = (*MockClient)(nil)
